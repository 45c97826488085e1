// Package feed composes the read-side views of the social graph: the post
// feed, a post's comment thread and a user's profile.
//
// Each view is built for one viewer, supplied as a Session. Anonymous viewers
// see every flag as false. Per-item lookups (author, like and save state) run
// on a worker pool and the returned slices keep the storage order.
//
// Usage:
//
//	builder, err := feed.NewBuilder(store, repos.Pets, repos.Posts, feed.WithPoolSize(4))
//	if err != nil {
//		return err
//	}
//	defer builder.Release()
//
//	items, err := builder.Feed(ctx, feed.AsUser(user.Summary()), 20)
package feed
