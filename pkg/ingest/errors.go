package ingest

import "errors"

var (
	// ErrMalformedRecord indicates a dataset record that cannot become a
	// point, such as one with a blank title.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrProvisioning indicates the collection could not be recreated.
	ErrProvisioning = errors.New("collection provisioning failed")

	// ErrUpload indicates a point batch could not be written.
	ErrUpload = errors.New("batch upload failed")

	// ErrReadinessTimeout indicates the collection did not become ready
	// within the configured window.
	ErrReadinessTimeout = errors.New("collection readiness timeout")

	// ErrVerification indicates the post-ingest probe query did not return
	// the expected point.
	ErrVerification = errors.New("verification probe failed")
)
