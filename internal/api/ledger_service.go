package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/menagerie/internal/game/collection"
	"github.com/cory-johannsen/menagerie/internal/game/seed"
	"github.com/cory-johannsen/menagerie/internal/game/traits"
)

// LedgerService exposes minting, ownership, and trait codec operations.
// Methods follow the gorilla/rpc signature and are addressed as
// "ledger.<Method>".
type LedgerService struct {
	ledger *collection.Service
	logger *zap.Logger
}

// NewLedgerService creates the ledger RPC facade.
//
// Precondition: ledger and logger must be non-nil.
func NewLedgerService(ledger *collection.Service, logger *zap.Logger) *LedgerService {
	return &LedgerService{ledger: ledger, logger: logger}
}

// EmptyReply is returned by methods with no result payload.
type EmptyReply struct{}

// MintArgs name the recipient and optionally pin the seed. An empty seed
// draws one from the configured source.
type MintArgs struct {
	Owner string `json:"owner"`
	Seed  string `json:"seed,omitempty"`
}

// MintReply carries the minted record.
type MintReply struct {
	Record RecordDTO `json:"record"`
}

// Mint creates a monster for args.Owner. With an explicit seed the result is
// fully reproducible; without one the seed comes from the configured source.
func (s *LedgerService) Mint(r *http.Request, args *MintArgs, reply *MintReply) error {
	var (
		rec *collection.Record
		err error
	)
	if args.Seed == "" {
		rec, err = s.ledger.MintRandom(r.Context(), args.Owner)
	} else {
		var sd uint256.Int
		sd, err = seed.Parse(args.Seed)
		if err != nil {
			return &json2.Error{Code: json2.E_BAD_PARAMS, Message: err.Error()}
		}
		rec, err = s.ledger.Mint(r.Context(), args.Owner, sd)
	}
	if err != nil {
		return err
	}
	reply.Record = toRecordDTO(rec)
	return nil
}

// GetArgs identify a minted monster.
type GetArgs struct {
	TokenID uint64 `json:"tokenId"`
}

// GetReply carries one ledger record.
type GetReply struct {
	Record RecordDTO `json:"record"`
}

// Get fetches a minted monster by token id.
func (s *LedgerService) Get(r *http.Request, args *GetArgs, reply *GetReply) error {
	rec, err := s.ledger.Get(r.Context(), args.TokenID)
	if err != nil {
		return err
	}
	reply.Record = toRecordDTO(rec)
	return nil
}

// ListByOwnerArgs select an owner's monsters.
type ListByOwnerArgs struct {
	Owner string `json:"owner"`
}

// ListByOwnerReply carries the owner's records, oldest first.
type ListByOwnerReply struct {
	Records []RecordDTO `json:"records"`
}

// ListByOwner fetches every monster held by an owner.
func (s *LedgerService) ListByOwner(r *http.Request, args *ListByOwnerArgs, reply *ListByOwnerReply) error {
	recs, err := s.ledger.ListByOwner(r.Context(), args.Owner)
	if err != nil {
		return err
	}
	reply.Records = make([]RecordDTO, len(recs))
	for i, rec := range recs {
		reply.Records[i] = toRecordDTO(rec)
	}
	return nil
}

// TransferArgs reassign ownership of a token.
type TransferArgs struct {
	TokenID uint64 `json:"tokenId"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// Transfer moves a monster between owners.
func (s *LedgerService) Transfer(r *http.Request, args *TransferArgs, reply *EmptyReply) error {
	return s.ledger.Transfer(r.Context(), args.TokenID, args.From, args.To)
}

// PackedArgs identify a minted monster.
type PackedArgs struct {
	TokenID uint64 `json:"tokenId"`
}

// PackedReply carries the packed trait word as 0x hex.
type PackedReply struct {
	Packed string `json:"packed"`
}

// Packed returns the packed trait word for a token.
func (s *LedgerService) Packed(r *http.Request, args *PackedArgs, reply *PackedReply) error {
	w, err := s.ledger.Packed(r.Context(), args.TokenID)
	if err != nil {
		return err
	}
	reply.Packed = traits.FormatWord(w)
	return nil
}

// DecodeArgs carry a packed trait word.
type DecodeArgs struct {
	Packed string `json:"packed"`
}

// DecodeReply carries the unpacked fields. Valid reports whether every
// enum-like field is inside its domain; decoding itself never fails.
type DecodeReply struct {
	Traits TraitsDTO `json:"traits"`
	Valid  bool      `json:"valid"`
}

// Decode unpacks a trait word without range checks.
func (s *LedgerService) Decode(r *http.Request, args *DecodeArgs, reply *DecodeReply) error {
	w, err := traits.ParseWord(args.Packed)
	if err != nil {
		return &json2.Error{Code: json2.E_BAD_PARAMS, Message: err.Error()}
	}
	tr := traits.Decode(w)
	reply.Traits = toTraitsDTO(tr)
	reply.Valid = tr.Validate() == nil
	return nil
}

// PowerArgs carry a packed trait word.
type PowerArgs struct {
	Packed string `json:"packed"`
}

// PowerReply carries the power score as a decimal string.
type PowerReply struct {
	Power string `json:"power"`
}

// Power computes the power score of one packed trait word.
func (s *LedgerService) Power(r *http.Request, args *PowerArgs, reply *PowerReply) error {
	w, err := traits.ParseWord(args.Packed)
	if err != nil {
		return &json2.Error{Code: json2.E_BAD_PARAMS, Message: err.Error()}
	}
	p := traits.PowerFromPacked(w)
	reply.Power = p.Dec()
	return nil
}

// BatchPowerArgs carry packed trait words.
type BatchPowerArgs struct {
	Packed []string `json:"packed"`
}

// BatchPowerReply carries one power score per input, in input order.
type BatchPowerReply struct {
	Powers []string `json:"powers"`
}

// BatchPower computes power scores for many packed words. Parsing fans out
// across goroutines; one malformed word fails the whole batch.
func (s *LedgerService) BatchPower(r *http.Request, args *BatchPowerArgs, reply *BatchPowerReply) error {
	words := make([]uint256.Int, len(args.Packed))
	g, _ := errgroup.WithContext(r.Context())
	for i, h := range args.Packed {
		g.Go(func() error {
			w, err := traits.ParseWord(h)
			if err != nil {
				return &json2.Error{
					Code:    json2.E_BAD_PARAMS,
					Message: fmt.Sprintf("packed[%d]: %s", i, err),
				}
			}
			words[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	powers := traits.PowerBatch(words)
	reply.Powers = make([]string, len(powers))
	for i := range powers {
		reply.Powers[i] = powers[i].Dec()
	}

	s.logger.Debug("batch power computed", zap.Int("count", len(powers)))
	return nil
}

// TotalPowerArgs carry packed trait words.
type TotalPowerArgs struct {
	Packed []string `json:"packed"`
}

// TotalPowerReply carries the summed power as a decimal string.
type TotalPowerReply struct {
	Total string `json:"total"`
}

// TotalPower sums the power scores of the given packed words with overflow
// checking.
func (s *LedgerService) TotalPower(r *http.Request, args *TotalPowerArgs, reply *TotalPowerReply) error {
	words := make([]uint256.Int, len(args.Packed))
	for i, h := range args.Packed {
		w, err := traits.ParseWord(h)
		if err != nil {
			return &json2.Error{
				Code:    json2.E_BAD_PARAMS,
				Message: fmt.Sprintf("packed[%d]: %s", i, err),
			}
		}
		words[i] = w
	}

	total, err := traits.Sum(traits.PowerBatch(words))
	if err != nil {
		return err
	}
	reply.Total = total.Dec()
	return nil
}

// StatsArgs select collection statistics.
type StatsArgs struct{}

// StatsReply carries the collection summary.
type StatsReply struct {
	Stats StatsDTO `json:"stats"`
}

// Stats reports minted supply and the rarity histogram.
func (s *LedgerService) Stats(r *http.Request, args *StatsArgs, reply *StatsReply) error {
	stats, err := s.ledger.Stats(r.Context())
	if err != nil {
		return err
	}
	reply.Stats = toStatsDTO(stats)
	return nil
}
