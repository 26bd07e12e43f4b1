// Package platform contains OS integration helpers: filesystem utilities
// and opening files, folders, and URLs with system applications.
package platform
