// Package governance is the proposal/vote/tally engine that authorizes
// sensitive registry transitions. Proposals and the voter roll are persisted
// in the engine's own durable-store namespace.
package governance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"modelvault/pkg/metrics"
	"modelvault/pkg/store"
	"modelvault/pkg/types"

	"github.com/containerd/errdefs"
	"go.uber.org/zap"
)

type Vote string

const (
	VoteYes     Vote = "yes"
	VoteNo      Vote = "no"
	VoteAbstain Vote = "abstain"
)

type ProposalType string

const (
	ProposalActivateArtifact  ProposalType = "activate_artifact"
	ProposalDeprecateArtifact ProposalType = "deprecate_artifact"
	ProposalGrantBadge        ProposalType = "grant_badge"
	ProposalRevokeBadge       ProposalType = "revoke_badge"
)

type ProposalStatus string

const (
	StatusOpen     ProposalStatus = "open"
	StatusPassed   ProposalStatus = "passed"
	StatusRejected ProposalStatus = "rejected"
	StatusExecuted ProposalStatus = "executed"
)

// Proposal is one governance question put to the voter roll. Ids are
// monotonic starting at 1.
type Proposal struct {
	ID             uint64           `json:"id"`
	Type           ProposalType     `json:"proposal_type"`
	Badge          types.BadgeType  `json:"badge,omitempty"`
	ArtifactID     types.ArtifactID `json:"artifact_id"`
	Proposer       string           `json:"proposer"`
	Description    string           `json:"description"`
	CreatedAt      time.Time        `json:"created_at"`
	VotingDeadline time.Time        `json:"voting_deadline"`
	Votes          map[string]Vote  `json:"votes"`
	Status         ProposalStatus   `json:"status"`
}

// Config holds the voting rules. Thresholds are integer percentages.
type Config struct {
	VotingPeriod      time.Duration
	QuorumThreshold   uint32
	ApprovalThreshold uint32
}

func DefaultConfig() Config {
	return Config{
		VotingPeriod:      7 * 24 * time.Hour,
		QuorumThreshold:   33,
		ApprovalThreshold: 66,
	}
}

// Engine owns all proposals and the voter roll.
type Engine struct {
	mu      sync.Mutex
	store   store.Store
	config  Config
	logger  *zap.Logger
	metrics *metrics.RegistryMetrics
}

func NewEngine(st store.Store, cfg Config, logger *zap.Logger) *Engine {
	if cfg.VotingPeriod <= 0 {
		cfg.VotingPeriod = DefaultConfig().VotingPeriod
	}
	return &Engine{store: st, config: cfg, logger: logger}
}

// WithMetrics attaches prometheus instrumentation.
func (e *Engine) WithMetrics(m *metrics.RegistryMetrics) *Engine {
	e.metrics = m
	return e
}

// CreateProposal opens a new proposal and returns its id.
func (e *Engine) CreateProposal(ctx context.Context, proposalType ProposalType, artifactID types.ArtifactID, proposer, description string, now time.Time) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	voters, err := e.loadVoters(ctx)
	if err != nil {
		return 0, err
	}
	if !contains(voters, proposer) {
		return 0, fmt.Errorf("proposer %s is not an authorized voter: %w", proposer, types.ErrUnauthorized)
	}

	id, err := e.nextID(ctx)
	if err != nil {
		return 0, err
	}

	proposal := &Proposal{
		ID:             id,
		Type:           proposalType,
		ArtifactID:     artifactID,
		Proposer:       proposer,
		Description:    description,
		CreatedAt:      now,
		VotingDeadline: now.Add(e.config.VotingPeriod),
		Votes:          make(map[string]Vote),
		Status:         StatusOpen,
	}
	if err := e.saveProposal(ctx, proposal); err != nil {
		return 0, err
	}

	e.logger.Info("Governance proposal created",
		zap.Uint64("proposal_id", id),
		zap.String("proposal_type", string(proposalType)),
		zap.String("artifact_id", string(artifactID)),
		zap.String("proposer", proposer))
	if e.metrics != nil {
		e.metrics.ProposalsCreated.Inc()
	}
	return id, nil
}

// CastVote records one voter's choice. One vote per voter; a repeat vote
// overwrites the earlier one.
func (e *Engine) CastVote(ctx context.Context, proposalID uint64, voter string, vote Vote, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	voters, err := e.loadVoters(ctx)
	if err != nil {
		return err
	}
	if !contains(voters, voter) {
		return fmt.Errorf("voter %s is not authorized: %w", voter, types.ErrUnauthorized)
	}

	proposal, err := e.loadProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	if now.After(proposal.VotingDeadline) {
		return fmt.Errorf("voting period for proposal %d has ended: %w", proposalID, types.ErrInvalidState)
	}
	if proposal.Status != StatusOpen {
		return fmt.Errorf("proposal %d is not open for voting: %w", proposalID, types.ErrInvalidState)
	}

	proposal.Votes[voter] = vote
	if err := e.saveProposal(ctx, proposal); err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.VotesCast.Inc()
	}
	return nil
}

// Tally decides an expired proposal. Quorum requires cast*100 >=
// voters*quorum; approval then requires yes*100 >= cast*approval. Repeated
// calls after the deadline recompute the same outcome from unchanged votes.
func (e *Engine) Tally(ctx context.Context, proposalID uint64, now time.Time) (ProposalStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	proposal, err := e.loadProposal(ctx, proposalID)
	if err != nil {
		return "", err
	}
	if !now.After(proposal.VotingDeadline) {
		return "", fmt.Errorf("voting period for proposal %d has not ended: %w", proposalID, types.ErrInvalidState)
	}

	voters, err := e.loadVoters(ctx)
	if err != nil {
		return "", err
	}

	totalVoters := uint64(len(voters))
	totalVotes := uint64(len(proposal.Votes))
	var yesVotes uint64
	for _, vote := range proposal.Votes {
		if vote == VoteYes {
			yesVotes++
		}
	}

	status := StatusRejected
	quorumMet := totalVotes*100 >= totalVoters*uint64(e.config.QuorumThreshold)
	if quorumMet && yesVotes*100 >= totalVotes*uint64(e.config.ApprovalThreshold) {
		status = StatusPassed
	}

	proposal.Status = status
	if err := e.saveProposal(ctx, proposal); err != nil {
		return "", err
	}

	e.logger.Info("Governance proposal tallied",
		zap.Uint64("proposal_id", proposalID),
		zap.Uint64("votes_cast", totalVotes),
		zap.Uint64("yes_votes", yesVotes),
		zap.Bool("quorum_met", quorumMet),
		zap.String("status", string(status)))
	return status, nil
}

// Execute marks a passed proposal as carried out. Terminal: a second call
// fails because the status is no longer Passed.
func (e *Engine) Execute(ctx context.Context, proposalID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	proposal, err := e.loadProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	if proposal.Status != StatusPassed {
		return fmt.Errorf("proposal %d must be passed to execute, is %s: %w",
			proposalID, proposal.Status, types.ErrInvalidState)
	}

	proposal.Status = StatusExecuted
	return e.saveProposal(ctx, proposal)
}

// Proposal returns one proposal by id.
func (e *Engine) Proposal(ctx context.Context, proposalID uint64) (*Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadProposal(ctx, proposalID)
}

// ListProposals returns every proposal in ascending id order. Keys are not
// zero-padded, so the lexical key order from the store interleaves ids past
// nine; the load re-sorts numerically.
func (e *Engine) ListProposals(ctx context.Context) ([]*Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys, err := e.store.ListKeys(ctx, store.ProposalPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	proposals := make([]*Proposal, 0, len(keys))
	for _, key := range keys {
		data, err := e.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to load proposal %s: %w", key, err)
		}
		var proposal Proposal
		if err := json.Unmarshal(data, &proposal); err != nil {
			return nil, fmt.Errorf("failed to decode proposal %s: %w", key, err)
		}
		proposals = append(proposals, &proposal)
	}
	sort.Slice(proposals, func(i, j int) bool { return proposals[i].ID < proposals[j].ID })
	return proposals, nil
}

// AddAuthorizedVoter adds one voter to the roll; adding an existing voter is
// a no-op.
func (e *Engine) AddAuthorizedVoter(ctx context.Context, voter string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	voters, err := e.loadVoters(ctx)
	if err != nil {
		return err
	}
	if contains(voters, voter) {
		return nil
	}
	return e.saveVoters(ctx, append(voters, voter))
}

// Voters returns the current voter roll.
func (e *Engine) Voters(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadVoters(ctx)
}

func (e *Engine) loadProposal(ctx context.Context, proposalID uint64) (*Proposal, error) {
	data, err := e.store.Get(ctx, store.ProposalKey(proposalID))
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("proposal %d: %w", proposalID, types.ErrNotFound)
		}
		return nil, err
	}
	var proposal Proposal
	if err := json.Unmarshal(data, &proposal); err != nil {
		return nil, fmt.Errorf("failed to decode proposal %d: %w", proposalID, err)
	}
	return &proposal, nil
}

func (e *Engine) saveProposal(ctx context.Context, proposal *Proposal) error {
	data, err := json.Marshal(proposal)
	if err != nil {
		return fmt.Errorf("failed to encode proposal %d: %w", proposal.ID, err)
	}
	if err := e.store.Put(ctx, store.ProposalKey(proposal.ID), data); err != nil {
		return fmt.Errorf("failed to persist proposal %d: %w", proposal.ID, err)
	}
	return nil
}

func (e *Engine) loadVoters(ctx context.Context) ([]string, error) {
	data, err := e.store.Get(ctx, store.VotersKey)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load voter roll: %w", err)
	}
	var voters []string
	if err := json.Unmarshal(data, &voters); err != nil {
		return nil, fmt.Errorf("failed to decode voter roll: %w", err)
	}
	return voters, nil
}

func (e *Engine) saveVoters(ctx context.Context, voters []string) error {
	data, err := json.Marshal(voters)
	if err != nil {
		return fmt.Errorf("failed to encode voter roll: %w", err)
	}
	return e.store.Put(ctx, store.VotersKey, data)
}

func (e *Engine) nextID(ctx context.Context) (uint64, error) {
	next := uint64(1)
	data, err := e.store.Get(ctx, store.ProposalSeqKey)
	if err == nil {
		last, parseErr := strconv.ParseUint(string(data), 10, 64)
		if parseErr != nil {
			return 0, fmt.Errorf("corrupt proposal sequence: %w", parseErr)
		}
		next = last + 1
	} else if !errdefs.IsNotFound(err) {
		return 0, err
	}

	if err := e.store.Put(ctx, store.ProposalSeqKey, []byte(strconv.FormatUint(next, 10))); err != nil {
		return 0, fmt.Errorf("failed to advance proposal sequence: %w", err)
	}
	return next, nil
}

func contains(list []string, item string) bool {
	for _, entry := range list {
		if entry == item {
			return true
		}
	}
	return false
}
