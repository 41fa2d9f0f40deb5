// Package gae provides a Google Cloud Datastore-backed UserStore for the
// memberauth credential core.
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	store := gae.NewUserStore(client, "my-namespace")
//
// Users are keyed by "license|username" (username normalized) and OAuth
// links by "provider|providerUserID", so the common lookups are direct key
// gets; reset-token and per-user link lookups run indexed queries.
package gae
