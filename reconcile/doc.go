// Package reconcile repairs the denormalized counters of posts and comments.
//
// LikesCount and CommentsCount are maintained incrementally by the interaction
// store. Imported data or an interrupted writer can leave them out of step with
// the relations they summarize. A Reconciler walks every post and comment in ID
// order, recounts them from the relation index, and records a checkpoint after
// each batch so an interrupted run picks up where it stopped.
package reconcile
