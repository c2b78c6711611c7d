// Package randname generates human-readable display names for freshly
// joined participants.
package randname

import (
	"math/rand"
)

var adjectives = []string{
	"amber", "bold", "brave", "bright", "calm", "clever", "cosmic",
	"crimson", "curious", "eager", "fuzzy", "gentle", "golden", "happy",
	"hidden", "jolly", "lucky", "mellow", "misty", "noble", "quiet",
	"rapid", "royal", "silent", "silver", "sleepy", "sly", "swift",
	"velvet", "wild", "witty", "zesty",
}

var animals = []string{
	"badger", "bison", "crane", "dolphin", "falcon", "ferret", "fox",
	"gecko", "heron", "ibis", "jackal", "koala", "lemur", "lynx",
	"magpie", "marmot", "narwhal", "ocelot", "otter", "owl", "panda",
	"puffin", "raccoon", "raven", "seal", "shrew", "sparrow", "stoat",
	"tapir", "toucan", "walrus", "wombat",
}

// Generate returns a random "adjective animal" pair. Uniqueness is the
// caller's concern.
func Generate() string {
	return adjectives[rand.Intn(len(adjectives))] + " " + animals[rand.Intn(len(animals))]
}
