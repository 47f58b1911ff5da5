package version

// Version is the current version of the duplex server
const Version = "0.4.0"

// UserAgent returns the User-Agent string for outgoing HTTP requests
func UserAgent() string {
	return "duplex-server/" + Version
}

// ServerHeader returns the Server header value for HTTP responses
func ServerHeader() string {
	return "duplex-server/" + Version
}
