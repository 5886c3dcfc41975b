// Package component manages the lifecycle of voiceid's infrastructure
// pieces. Components start in registration order and stop in reverse, and
// report health on demand.
package component
