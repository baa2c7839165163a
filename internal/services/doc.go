// Package services provides the centralized service registry for the
// estimator.
//
// Build wires the content source, outbound clients, lead orchestrator and
// session manager from configuration. Both the daemon and the terminal wizard
// start from it, then use the accessor methods to reach individual services.
package services
