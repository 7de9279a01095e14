// Package log provides secure logging functionality with automatic
// sanitization of credentials, built on top of the standard slog package.
//
// webmirror can be configured with HTTP basic credentials and cookies that
// are attached to every request, and verbose mode traces each request it
// builds. The SecureHandler masks those values (Authorization headers,
// passwords, cookies) before they reach the log output, so a shared debug
// trace never leaks site credentials.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Debug("request built",
//	    "url", "http://example.com/blog/",
//	    "authorization", "Basic dXNlcjpwYXNz", // masked
//	)
//
//	slog.SetDefault(logger)
package log
