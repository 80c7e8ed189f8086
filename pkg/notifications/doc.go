// Package notifications delivers business events (such as a new order) to
// staff devices over several channels.
//
// The pieces, leaves first:
//
//   - Registry stores subscriptions through a Store (MemoryStore here; Postgres,
//     SQLite and Redis stores live in sub-packages). Registration is an
//     idempotent upsert keyed by (Channel, EndpointKey).
//   - Adapter sends a Message to one Subscription and reports a
//     DeliveryAttempt with an Outcome. Adapters for web push, FCM, WhatsApp and
//     e-mail live in sub-packages; LogAdapter is the mock.
//   - Dispatcher fans an event out to all subscriptions concurrently with a
//     per-send timeout.
//   - Pruner deletes subscriptions whose attempt failed permanently.
//   - Notifier runs dispatch, prune, stats and the optional AttemptRecorder.
//   - Ingress validates a RawEvent, drops duplicates seen within the dedup TTL
//     and calls the Notifier.
//
// Typical wiring:
//
//	registry := notifications.NewRegistry(notifications.NewMemoryStore())
//	dispatcher := notifications.NewDispatcher(registry,
//		notifications.WithAdapter(notifications.ChannelWebPush, webpushAdapter),
//	)
//	notifier := notifications.NewNotifier(dispatcher, notifications.NewPruner(registry, log))
//	ingress := notifications.NewIngress(notifier, notifications.NewMemoryDeduper())
//
//	res := ingress.Ingest(ctx, notifications.RawEvent{
//		Type: "order_placed", BusinessID: "ORD-1", Title: "New Order #ORD-1", Body: "...",
//	})
//
// A failure on one (subscription, channel) pair never affects another; no
// operation here returns a delivery error to the caller.
package notifications
