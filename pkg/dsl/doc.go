/*
Package dsl provides a Go DSL for programmatically constructing synth documents.

It allows developers to describe a lattice and its object catalog with a
fluent builder instead of writing the synth text format by hand. This is
particularly useful for generated scenes, fixtures and unit tests.

Example usage:

	b := dsl.New(4, 4, 2).Scene("house.blend")

	wall := b.Group("Wall")
	roof := b.Group("Roof", "Chimney")

	b.Plane(0).Border(wall)
	b.Plane(1).Fill(roof)

	doc, err := b.Build() // *domain.Document, ready for lattice.Engine.Execute
	text, err := b.Synth() // the same document in synth text form
*/
package dsl
