package scheduler

import (
	"context"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/zerr"
)

// resolveLoop drains the resolve queue. Every request is resolved on its
// own goroutine so a slow query never holds up the queue.
func (st *runState) resolveLoop(ctx context.Context) {
	for {
		for {
			req, ok := st.queue.TryDequeue()
			if !ok {
				break
			}
			st.resolvers.Go(func() { st.resolve(ctx, req) })
		}

		select {
		case _, ok := <-st.queue.Wait():
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (st *runState) resolve(ctx context.Context, req ResolveRequest) {
	defer st.finish()

	rule, err := st.lookup(ctx, req.Target)
	if err != nil {
		st.fail(err)
	}
	if req.Reply != nil {
		req.Reply(rule, err)
	}
}

// lookup returns the rule for name, querying the rule database at most
// once per name. Concurrent lookups of the same name share one query.
func (st *runState) lookup(ctx context.Context, name string) (*domain.Rule, error) {
	if rule, ok := st.cached(name); ok {
		return rule, nil
	}

	v, err, _ := st.flight.Do(name, func() (any, error) {
		if rule, ok := st.cached(name); ok {
			return rule, nil
		}

		st.s.logger.Debug("query " + name)
		rule, err := st.db.Query(ctx, name)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrRuleQueryFailed.Error()), "target", name)
		}

		st.mu.Lock()
		st.rules[name] = rule
		st.queries++
		st.mu.Unlock()

		if rule == nil {
			return nil, nil
		}

		for _, input := range rule.Inputs() {
			st.enqueue(ResolveRequest{Target: input})
		}

		st.mu.Lock()
		st.inflight++
		st.backlog = append(st.backlog, rule)
		st.mu.Unlock()
		st.wakeup()

		return rule, nil
	})
	if err != nil {
		return nil, err
	}

	rule, _ := v.(*domain.Rule)
	return rule, nil
}
