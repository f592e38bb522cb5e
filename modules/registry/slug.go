package registry

import "math/rand/v2"

// Slug candidates are adjective-animal pairs ("brave-otter"). Collisions are
// handled by the set-if-absent retry in allocateSlug, so the generator only
// has to be cheap, not unique.

var slugAdjectives = []string{
	"tiny", "happy", "sleepy", "fluffy", "cheery", "silly", "jolly", "cozy",
	"golden", "silver", "crimson", "emerald", "amber", "violet", "bright",
	"brave", "calm", "swift", "silent", "bouncy", "fuzzy", "plucky", "merry",
	"gentle", "eager", "daring", "mellow", "sunny", "breezy", "lively",
}

var slugAnimals = []string{
	"otter", "panda", "koala", "fox", "hedgehog", "squirrel", "raccoon",
	"beaver", "dolphin", "narwhal", "penguin", "flamingo", "pelican",
	"sparrow", "robin", "toucan", "parrot", "ferret", "weasel", "mole",
	"bunny", "fawn", "lamb", "cub", "owl", "heron", "lynx", "marmot",
	"badger", "wombat",
}

func newSlug() string {
	adj := slugAdjectives[rand.IntN(len(slugAdjectives))]
	animal := slugAnimals[rand.IntN(len(slugAnimals))]
	return adj + "-" + animal
}
