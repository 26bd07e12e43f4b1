// Package ui contains the Fyne-based desktop user interface. It wires the
// search form, results list, and download queue to the catalog, search, and
// download services, and renders raster layers on the map view.
package ui
