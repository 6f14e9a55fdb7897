package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"nriva-scraper/lib/ratelimit"
	"nriva-scraper/lib/scrapers/nriva"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/archive")

var (
	ErrMissingCredentials = fmt.Errorf("no credentials supplied")
	ErrNoCandidates       = fmt.Errorf("search returned no candidates")
)

type ExistsPolicy string

const (
	ExistsSkip      ExistsPolicy = "skip"
	ExistsOverwrite ExistsPolicy = "overwrite"
)

func ParseExistsPolicy(s string) (ExistsPolicy, error) {
	switch ExistsPolicy(s) {
	case ExistsSkip, ExistsOverwrite:
		return ExistsPolicy(s), nil
	}
	return "", fmt.Errorf("unknown exists policy %q, expected skip or overwrite", s)
}

type state string

const (
	stateIdle               state = "idle"
	stateAuthenticating     state = "authenticating"
	stateSearching          state = "searching"
	stateProcessingProfiles state = "processing_profiles"
	stateDone               state = "done"
	stateFailed             state = "failed"
)

type Options struct {
	Criteria  nriva.Criteria
	OutputDir string
	OnExists  ExistsPolicy
	// caps the number of successfully persisted profiles, 0 means
	// no cap. skipped candidates don't count against it.
	MaxProfiles int
	Gate        *ratelimit.Gate
	// optional audit trail, nil disables it
	Ledger *Ledger
}

type Summary struct {
	Criteria   nriva.Criteria
	OutputDir  string
	StartedAt  time.Time
	FinishedAt time.Time
	Candidates int
	Persisted  []nriva.Profile
	Skipped    int
	Failed     int
}

// ProfileDir is the directory a persisted profile lives in.
func (s Summary) ProfileDir(profile nriva.Profile) string {
	return filepath.Join(s.OutputDir, s.Criteria.Slug(), profile.FolderKey())
}

// Run drives the whole acquisition pipeline: login, search, then the
// per-candidate fetch/persist loop. Candidate and asset level
// failures are contained inside the loop; only authentication and
// search failures abort the run.
func Run(ctx context.Context, client *nriva.Client, username, password string, opts Options) (Summary, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	summary := Summary{
		Criteria:  opts.Criteria,
		OutputDir: opts.OutputDir,
		StartedAt: time.Now(),
	}

	current := stateIdle
	fail := func(err error) (Summary, error) {
		transition(ctx, &current, stateFailed)
		span.SetStatus(codes.Error, err.Error())
		summary.FinishedAt = time.Now()
		return summary, err
	}

	transition(ctx, &current, stateAuthenticating)
	if username == "" || password == "" {
		return fail(ErrMissingCredentials)
	}
	err := client.Login(ctx, username, password)
	if err != nil {
		return fail(fmt.Errorf("login: %w", err))
	}

	transition(ctx, &current, stateSearching)
	candidates, err := client.Search(ctx, opts.Criteria, opts.Gate)
	if err != nil {
		return fail(fmt.Errorf("search: %w", err))
	}
	if len(candidates) == 0 {
		return fail(ErrNoCandidates)
	}
	summary.Candidates = len(candidates)

	transition(ctx, &current, stateProcessingProfiles)
	for i, candidate := range candidates {
		if opts.MaxProfiles > 0 && len(summary.Persisted) >= opts.MaxProfiles {
			slog.InfoContext(ctx, "reached profile cap", "cap", opts.MaxProfiles)
			break
		}

		if candidate.Id == "" {
			slog.WarnContext(ctx, "candidate has no identifiable id, skipping", "index", i)
			summary.Skipped++
			continue
		}

		slog.InfoContext(
			ctx, "processing candidate",
			"id", candidate.Id,
			"position", fmt.Sprintf("%d/%d", i+1, len(candidates)),
		)

		processCandidate(ctx, client, candidate, opts, &summary)

		// the self-imposed rate limit applies after every candidate
		// that reached the remote, errored or not
		err := opts.Gate.Wait(ctx)
		if err != nil {
			return fail(err)
		}
	}

	transition(ctx, &current, stateDone)
	summary.FinishedAt = time.Now()

	if opts.Ledger != nil {
		err := opts.Ledger.RecordRun(ctx, summary)
		if err != nil {
			slog.WarnContext(ctx, "failed to record run in ledger", "err", err)
		}
	}

	return summary, nil
}

// processCandidate handles one candidate end to end. Nothing it does
// can abort the run.
func processCandidate(
	ctx context.Context,
	client *nriva.Client,
	candidate nriva.Candidate,
	opts Options,
	summary *Summary,
) {
	profile, err := client.FetchProfile(ctx, candidate.Id)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch profile, skipping candidate", "id", candidate.Id, "err", err)
		summary.Failed++
		return
	}
	profile.SearchFields = candidate.Fields

	dir := summary.ProfileDir(profile)
	if _, err := os.Stat(dir); err == nil {
		switch opts.OnExists {
		case ExistsOverwrite:
			slog.InfoContext(ctx, "overwriting existing profile directory", "dir", dir)
			// deletion errors are deliberately ignored, the
			// re-persist below overwrites whatever is left
			os.RemoveAll(dir)
		default:
			slog.InfoContext(ctx, "profile directory already exists, skipping", "dir", dir)
			summary.Skipped++
			return
		}
	}

	err = PersistProfile(ctx, client, profile, dir)
	if err != nil {
		slog.WarnContext(ctx, "failed to persist profile", "id", candidate.Id, "err", err)
		summary.Failed++
		return
	}

	summary.Persisted = append(summary.Persisted, profile)
	slog.InfoContext(ctx, "persisted profile", "key", profile.FolderKey(), "dir", dir)
}

func transition(ctx context.Context, current *state, next state) {
	slog.DebugContext(ctx, "pipeline state change", "from", string(*current), "to", string(next))
	*current = next
}
