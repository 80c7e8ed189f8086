// Package poller detects new records by comparing a cached count against
// the live one and emits a local notification for each record in the delta.
// It is the delivery path of last resort when no push channel is reachable.
//
// A cycle reads the count, returns to idle when nothing grew, otherwise
// fetches the delta most recent first, emits one notification per record and
// only then advances the count. A crash mid-cycle therefore re-notifies on the
// next successful cycle instead of losing records.
//
//	p := poller.New(source, poller.NewLogEmitter(log), poller.WithInterval(10*time.Second))
//	if err := p.Start(ctx); err != nil {
//		return err
//	}
//	defer p.Stop()
package poller
