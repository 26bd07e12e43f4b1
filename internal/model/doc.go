// Package model contains the core data types shared between the search,
// download and UI layers: granules returned by the CMR catalog, bounding
// boxes entered by the user, and the download task lifecycle.
package model
