// Package checksum fingerprints source files for the run manifest.
//
// Each run records the SHA-256 of every CSV it ingested, so a published
// analysis can be traced back to the exact input files that produced it.
// Files are hashed in a single streaming pass; source files run to several
// gigabytes, so nothing is held in memory.
//
// # Example Usage
//
//	calc := checksum.New()
//	sum, size, err := calc.File("data/participants.csv")
//
// # Thread Safety
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
