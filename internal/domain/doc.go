// Package domain defines the core business entities for the media
// lifecycle pipeline.
package domain
