// Package service contains the application services that orchestrate the
// media registry, the reference extractor, and the object store: keeping
// reference sets in sync with document saves, registering uploads, and
// running the orphan-detection and reclamation passes.
package service
