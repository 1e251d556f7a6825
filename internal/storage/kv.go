package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/learning"
)

func (f *Facade) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return f.kv.Set(ctx, key, raw, ttl)
}

// getJSON reports found=false for a missing key.
func (f *Facade) getJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, found, err := f.kv.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetAnalysisStatus writes the status for repoID, keeping the first
// StartedAt seen for the repo.
func (f *Facade) SetAnalysisStatus(ctx context.Context, repoID string, state codebase.AnalysisState, errMsg string) error {
	now := f.now()
	st := codebase.AnalysisStatus{RepoID: repoID, Status: state, Error: errMsg, StartedAt: now, UpdatedAt: now}
	var prev codebase.AnalysisStatus
	if found, err := f.getJSON(ctx, AnalysisKey(repoID), &prev); err == nil && found && !prev.StartedAt.IsZero() {
		st.StartedAt = prev.StartedAt
	}
	return f.setJSON(ctx, AnalysisKey(repoID), st, AnalysisTTL)
}

func (f *Facade) GetAnalysisStatus(ctx context.Context, repoID string) (*codebase.AnalysisStatus, error) {
	var st codebase.AnalysisStatus
	found, err := f.getJSON(ctx, AnalysisKey(repoID), &st)
	if err != nil || !found {
		return nil, err
	}
	return &st, nil
}

func (f *Facade) SetRepoMeta(ctx context.Context, meta *codebase.RepoMeta) error {
	return f.setJSON(ctx, RepoMetaKey(meta.RepoID), meta, RepoMetaTTL)
}

func (f *Facade) GetRepoMeta(ctx context.Context, repoID string) (*codebase.RepoMeta, error) {
	var meta codebase.RepoMeta
	found, err := f.getJSON(ctx, RepoMetaKey(repoID), &meta)
	if err != nil || !found {
		return nil, err
	}
	return &meta, nil
}

func (f *Facade) SetSessionState(ctx context.Context, s *learning.LearnerSession) error {
	return f.setJSON(ctx, SessionKey(s.ID), s.QuickState(), SessionStateTTL)
}

func (f *Facade) GetSessionState(ctx context.Context, sessionID string) (*learning.QuickState, error) {
	var qs learning.QuickState
	found, err := f.getJSON(ctx, SessionKey(sessionID), &qs)
	if err != nil || !found {
		return nil, err
	}
	return &qs, nil
}

type RateLimitResult struct {
	Allowed   bool
	Count     int64
	Remaining int64
	ResetIn   time.Duration
}

// CheckRateLimit counts a hit against key in a fixed window that starts on
// the first hit.
func (f *Facade) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (RateLimitResult, error) {
	n, ttl, err := f.kv.IncrWindow(ctx, RateKey(key), window)
	if err != nil {
		return RateLimitResult{}, err
	}
	remaining := limit - n
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{Allowed: n <= limit, Count: n, Remaining: remaining, ResetIn: ttl}, nil
}

// AppendMemory pushes one conversation turn, keeping the newest
// MemoryMaxEntries and refreshing the TTL.
func (f *Facade) AppendMemory(ctx context.Context, sessionID string, entry learning.MemoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = f.now()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode memory entry: %w", err)
	}
	return f.kv.PushCapped(ctx, MemoryKey(sessionID), raw, MemoryMaxEntries, MemoryTTL)
}

// GetMemory returns conversation turns oldest first. Undecodable entries are
// skipped.
func (f *Facade) GetMemory(ctx context.Context, sessionID string) ([]learning.MemoryEntry, error) {
	raws, err := f.kv.Range(ctx, MemoryKey(sessionID))
	if err != nil {
		return nil, err
	}
	out := make([]learning.MemoryEntry, 0, len(raws))
	for _, raw := range raws {
		var e learning.MemoryEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			f.log.Warn("Skipping undecodable memory entry", "session_id", sessionID, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
