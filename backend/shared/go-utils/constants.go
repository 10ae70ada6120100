package utils

const (
	OrganizationName                      = "Shiftly"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"
)
