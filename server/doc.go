// Package server exposes the query service over HTTP using gin.
//
// Routes:
//
//	GET  /            deployment check page
//	GET  /api/stats   retrieval configuration
//	POST /api/prompt  answer a question with retrieved context
//
// Every response carries an X-Request-ID header. Failed prompt requests
// also carry X-Error-Kind with the failure class.
package server
