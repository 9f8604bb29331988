// Package events publishes generation progress over Redis Pub/Sub.
//
// A generation run names itself (the collection name by default) and every event
// it emits goes to traitforge:{run_name}:events. Events are JSON objects carrying
// the event type, the run id and, depending on the type, the item id, content
// hash, failure reason or final statistics.
//
// Delivery is at-most-once. A subscriber that connects after an event was
// published never sees it; the final run summary is additionally stored in a hash
// at traitforge:{run_name}:summary so late readers can fetch it.
//
// # Usage Example
//
//	client, err := events.NewClient(&redis.Options{Addr: "localhost:6379"}, "koby")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	sub, err := client.Subscribe(ctx)
//	if err != nil {
//		return err
//	}
//	defer sub.Close()
//
//	for ev := range sub.Events() {
//		fmt.Println(ev.Type, ev.ItemID)
//	}
package events
