// Package services contains the console's application services: the auth
// state controller that owns session state, and the feature services
// (sign-in, password reset, resource access) built on the HTTP pipeline.
//
// Feature services report outcomes as models.Result values rather than
// errors, so callers render { success, data | error } uniformly.
package services
