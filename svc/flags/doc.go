// Package flags exposes the feature gating core over HTTP: an
// administrative chi router for managing flags and overrides, gate
// middleware for protecting endpoints behind a flag, and YAML seeding of
// initial flag definitions.
//
// The service reads decisions through a DecisionCache and clears it on
// every mutation, so admin changes take effect immediately while request
// paths stay cheap.
//
//	store := feature.NewMemoryStore()
//	svc := flags.New(
//		feature.NewRegistry(store),
//		feature.NewEngine(store),
//		feature.NewMemoryDecisionCache(),
//	)
//
//	r := chi.NewRouter()
//	r.Mount("/admin/feature-flags", svc.Router())
//	r.With(svc.RequireFeature("beta-export", identityFromSession)).
//		Get("/export", exportHandler)
package flags
