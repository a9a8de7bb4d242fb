// Package calcserver exposes the damage evaluator over gRPC as the
// dmgcalc.v1.Calculator service. Requests and responses are
// google.protobuf.Struct documents carrying the JSON shapes of the profile
// and dmg packages.
package calcserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/dmgcalc/internal/game/artifact"
	"github.com/cory-johannsen/dmgcalc/internal/game/character"
	"github.com/cory-johannsen/dmgcalc/internal/game/dmg"
	"github.com/cory-johannsen/dmgcalc/internal/game/profile"
	"github.com/cory-johannsen/dmgcalc/internal/game/rules"
	"github.com/cory-johannsen/dmgcalc/internal/storage/postgres"
)

// ProfileStore loads persisted builds. *postgres.ProfileRepository satisfies it.
type ProfileStore interface {
	Get(ctx context.Context, uid string, charID int) (postgres.StoredProfile, error)
}

// scenarioRequest is the JSON form of a dmg.Scenario.
type scenarioRequest struct {
	EnemyLevel int                `json:"enemyLevel"`
	Mode       string             `json:"mode"`
	Detail     *int               `json:"detail"`
	Params     map[string]float64 `json:"params"`
	CritMode   string             `json:"critMode"`
}

// evaluateRequest names a build inline (profile) or by store key (uid, charId).
type evaluateRequest struct {
	UID      string          `json:"uid"`
	CharID   int             `json:"charId"`
	Profile  json.RawMessage `json:"profile"`
	Scenario scenarioRequest `json:"scenario"`
}

type listDetailsRequest struct {
	Name   string `json:"name"`
	CharID int    `json:"charId"`
}

// Service implements CalculatorServer.
type Service struct {
	eval   *dmg.Evaluator
	deps   profile.Deps
	store  ProfileStore
	logger *zap.Logger
}

var _ CalculatorServer = (*Service)(nil)

// NewService creates a Service. store may be nil, in which case requests
// that name a stored profile fail with codes.Unimplemented.
//
// Precondition: eval, deps.Characters, deps.Artifacts and logger must be non-nil.
func NewService(eval *dmg.Evaluator, deps profile.Deps, store ProfileStore, logger *zap.Logger) *Service {
	return &Service{eval: eval, deps: deps, store: store, logger: logger}
}

// Evaluate computes one detail for the requested build.
func (s *Service) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req evaluateRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	b, err := s.build(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	res, err := s.eval.EvaluateDetail(b, scenarioOf(req.Scenario))
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(res)
}

// EvaluateAll computes every detail for the requested build. Per-detail
// failures are reported inline.
func (s *Service) EvaluateAll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req evaluateRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	b, err := s.build(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	all, err := s.eval.EvaluateAll(b, scenarioOf(req.Scenario))
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]any{"name": b.Name(), "results": all})
}

// GetProfile summarises the requested build: its panel, artifact mark,
// costume and data source, plus the main attributes and details of its rule
// module when one exists. It succeeds for characters without damage rules.
func (s *Service) GetProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req evaluateRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	b, err := s.build(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	sum, err := s.eval.Summarize(b)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(sum)
}

// ListDetails lists the selectable details of a character by name or id.
func (s *Service) ListDetails(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req listDetailsRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	name := req.Name
	if name == "" {
		if req.CharID <= 0 {
			return nil, status.Error(codes.InvalidArgument, "name or charId is required")
		}
		desc, err := s.deps.Characters.Get(character.Query{ID: req.CharID})
		if err != nil {
			return nil, toStatus(err)
		}
		name = desc.Name
	}
	details, err := s.eval.Details(name)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]any{"name": name, "details": details})
}

func (s *Service) build(ctx context.Context, req evaluateRequest) (*profile.Build, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var raw profile.RawDescriptor
	switch {
	case len(req.Profile) > 0 && string(req.Profile) != "null":
		r, err := profile.ParseRaw(req.Profile)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		raw = r
	case req.UID != "" && req.CharID > 0:
		if s.store == nil {
			return nil, status.Error(codes.Unimplemented, "no profile store configured")
		}
		sp, err := s.store.Get(ctx, req.UID, req.CharID)
		if err != nil {
			return nil, err
		}
		raw = sp.Profile.Raw()
	default:
		return nil, status.Error(codes.InvalidArgument, "profile or uid and charId are required")
	}
	return profile.New(raw, req.UID, s.deps)
}

func scenarioOf(r scenarioRequest) dmg.Scenario {
	return dmg.Scenario{
		EnemyLevel:  r.EnemyLevel,
		Mode:        r.Mode,
		DetailIndex: r.Detail,
		Params:      rules.Params(r.Params),
		CritMode:    dmg.CritMode(r.CritMode),
	}
}

// decode converts a Struct into v through its canonical JSON form.
func decode(in *structpb.Struct, v any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "encoding request: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
	}
	return nil
}

// encode converts v into a Struct through its JSON form.
func encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}

// toStatus maps domain sentinels to gRPC status codes. Errors that already
// carry a status pass through.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	var code codes.Code
	switch {
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, character.ErrNotFound), errors.Is(err, postgres.ErrProfileNotFound):
		code = codes.NotFound
	case errors.Is(err, rules.ErrInvalidScenario), errors.Is(err, artifact.ErrInvalidPiece):
		code = codes.InvalidArgument
	case errors.Is(err, rules.ErrUnsupported), errors.Is(err, rules.ErrMissingTalent):
		code = codes.FailedPrecondition
	default:
		code = codes.Internal
	}
	return status.Error(code, fmt.Sprint(err))
}
