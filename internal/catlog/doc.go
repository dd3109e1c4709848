// Package catlog is the category-routed log fan-out engine.
//
// A Logger combines three collaborators:
//
//   - a colour.Manager that turns a style token such as "!warn" into a
//     decoration,
//   - a router.Router that maps a category to ordered destination names,
//   - a destination.Registry that maps names to lazily opened sinks.
//
// A call to Log decorates the message, resolves the category (falling back
// to the default category when it is unknown) and writes one line to every
// destination in order. A failing destination never stops delivery to the
// others; the failures come back as a *apperrors.DeliveryError.
//
// All methods are safe for concurrent use. The category and destination maps
// can be replaced at runtime; a call in flight finishes against the maps it
// started with.
package catlog
