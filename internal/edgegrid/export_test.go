package edgegrid

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

var (
	WithHTTPClient = withHTTPClient
	WithNonce      = withNonce
)

// Function exports for unit testing internal logic.
var (
	Sign        = sign
	ContentHash = contentHash
	SplitHost   = splitHost
	EncodeBody  = encodeBody
	ParseEdgerc = parseEdgerc
)
