package domain

import "errors"

var (
	// ErrProductNotFound is returned when the remote database has no product for a query or barcode
	ErrProductNotFound = errors.New("product not found in food database")

	// ErrCatalogAPIFailure is returned when a remote food database request fails
	ErrCatalogAPIFailure = errors.New("food database request failed")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrMealNotFound is returned when no meal has the given id
	ErrMealNotFound = errors.New("meal not found")

	// ErrBlobNotFound is returned by a blob store when the key was never written
	ErrBlobNotFound = errors.New("blob not found")

	// ErrCapabilityUnavailable is returned when an optional capability could not be loaded
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrNoBarcode is returned when a frame or image contains no decodable barcode
	ErrNoBarcode = errors.New("no barcode detected")

	// ErrCameraUnavailable is returned when the frame source cannot be opened
	ErrCameraUnavailable = errors.New("could not access camera")

	// ErrScannerBusy is returned when Start is called on a scanner that is not idle
	ErrScannerBusy = errors.New("scanner already running")

	// ErrInvalidImage is returned when an uploaded image cannot be decoded
	ErrInvalidImage = errors.New("invalid image")
)
