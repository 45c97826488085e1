// Package interaction is the public entry point for social actions on the graph.
//
// A Store composes the entity repositories and the relation index into the
// operations a client calls directly: toggling likes, saves and follows,
// submitting comments, and answering "is liked by", "comments for post" and
// follow graph queries.
//
// # Toggles
//
// TogglePostLike, ToggleCommentLike, TogglePostSave and ToggleFollow take only
// identifiers and flip the relation from its stored state. The read of the
// current state and the write of the new state happen in one transaction
// together with the dependent counter, and the returned core.ToggleResult is
// the authoritative state after the call. Callers must render it rather than
// recompute counts locally.
//
// Toggling from observed state is self-correcting for a single writer but two
// writers racing on the same pair can each flip it. Callers that already know
// the desired state should use the Set variants (SetPostLike and friends),
// which are idempotent.
//
// # Invalid input
//
// A zero acting user or blank comment text is ignored: the call returns a zero
// result and a nil error, and nothing is written. Absence of a target entity is
// not an error either; reads report not found through their boolean or nil
// result.
//
// # Usage
//
//	store, err := interaction.NewStore(repos.Users, repos.Posts, repos.Comments, repos.Interactions,
//	    interaction.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	res, err := store.TogglePostLike(ctx, session.Id, 102)
package interaction
