package document

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ANDREW-SIGEI/kemri27/internal/domain"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/apperror"
	"github.com/ANDREW-SIGEI/kemri27/internal/shared/contextutil"

	"go.uber.org/zap"
)

const (
	StatsCacheKeyPrefix = "dms:stats:"
	StatsCacheTTL       = 5 * time.Minute
	trendMonths         = 6
)

func StatsCacheKey(userID string) string {
	return StatsCacheKeyPrefix + userID
}

// Stats is served from Redis when cached; concurrent misses for the same
// user share one computation.
func (s *service) Stats(ctx context.Context, actor domain.Actor) (StatsResponse, error) {
	cacheKey := StatsCacheKey(actor.ID)
	log := contextutil.GetLogger(ctx, s.logger)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp StatsResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (any, error) {
		// Shared by every waiter; the first caller going away must not fail the rest.
		ctx := context.WithoutCancel(ctx)
		resp, err := s.computeStats(ctx, actor)
		if err != nil {
			return nil, err
		}

		if s.rdb != nil {
			if data, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, cacheKey, data, StatsCacheTTL).Err(); err != nil {
					log.Warn("stats cache write failed", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}
		return resp, nil
	})
	if err != nil {
		log.Error("compute stats failed", zap.String("user_id", actor.ID), zap.Error(err))
		return StatsResponse{}, apperror.ErrInternal.Wrap(err)
	}

	return v.(StatsResponse), nil
}

func (s *service) computeStats(ctx context.Context, actor domain.Actor) (StatsResponse, error) {
	viewer := ViewerFor(actor)
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	trendStart := monthStart.AddDate(0, -(trendMonths - 1), 0)

	resp := StatsResponse{ByStatus: make(map[Status]int64, len(AllStatuses))}
	for _, st := range AllStatuses {
		resp.ByStatus[st] = 0
	}

	counts, err := s.repo.CountByStatus(ctx, viewer)
	if err != nil {
		return StatsResponse{}, err
	}
	for _, c := range counts {
		resp.ByStatus[c.Status] += c.Count
		resp.Total += c.Count
	}

	if resp.PendingReview, err = s.repo.CountPendingReview(ctx, actor.ID); err != nil {
		return StatsResponse{}, err
	}
	if resp.ApprovedThisMonth, err = s.repo.CountStatusSince(ctx, viewer, StatusApproved, monthStart); err != nil {
		return StatsResponse{}, err
	}
	if resp.RejectedThisMonth, err = s.repo.CountStatusSince(ctx, viewer, StatusRejected, monthStart); err != nil {
		return StatsResponse{}, err
	}

	sent, err := s.repo.MonthlySent(ctx, actor.ID, trendStart)
	if err != nil {
		return StatsResponse{}, err
	}
	received, err := s.repo.MonthlyReceived(ctx, actor.ID, trendStart)
	if err != nil {
		return StatsResponse{}, err
	}
	resp.Trend = buildTrend(trendStart, sent, received)

	return resp, nil
}

// buildTrend returns one bucket per month from start, zero-filled.
func buildTrend(start time.Time, sent, received []MonthCount) []MonthlyTrend {
	out := make([]MonthlyTrend, trendMonths)
	index := make(map[string]int, trendMonths)
	for i := range out {
		m := start.AddDate(0, i, 0).Format("2006-01")
		out[i].Month = m
		index[m] = i
	}
	for _, c := range sent {
		if i, ok := index[c.Month]; ok {
			out[i].Outgoing = c.Count
		}
	}
	for _, c := range received {
		if i, ok := index[c.Month]; ok {
			out[i].Incoming = c.Count
		}
	}
	return out
}

// invalidateStats drops cached stats of every affected user. Failures are
// logged; the cache expires on its own.
func (s *service) invalidateStats(ctx context.Context, userIDs ...string) {
	if s.rdb == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, StatsCacheKey(id))
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		contextutil.GetLogger(ctx, s.logger).Warn("stats cache invalidation failed", zap.Error(err))
	}
}
