// Package model contains domain models passed between layers.
package model
