package engine

// categories is the closed set of content domains a user can pick.
// Labels double as button text, so they carry the emoji prefix.
var categories = []string{
	"🎬 Movies",
	"🎮 Games",
	"📺 TV Shows",
	"📚 Books",
	"🎌 Anime",
}

// randomSeeds holds the per-category phrase sets used by the "random"
// control to pick a seed query.
var randomSeeds = map[string][]string{
	"🎬 Movies": {
		"mind-bending sci-fi",
		"slow-burn crime dramas",
		"feel-good road movies",
		"classic heist thrillers",
		"atmospheric horror",
	},
	"🎮 Games": {
		"cozy management sims",
		"challenging roguelikes",
		"story-rich RPGs",
		"couch co-op games",
		"atmospheric metroidvanias",
	},
	"📺 TV Shows": {
		"prestige crime dramas",
		"workplace comedies",
		"twisty miniseries",
		"character-driven sci-fi",
		"slow television mysteries",
	},
	"📚 Books": {
		"sweeping space opera",
		"unreliable narrators",
		"literary page-turners",
		"cozy fantasy",
		"narrative non-fiction",
	},
	"🎌 Anime": {
		"emotional slice of life",
		"smart psychological thrillers",
		"classic mecha",
		"sports underdog stories",
		"beautiful film-length features",
	},
}

// Categories returns the category labels in keyboard order.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// IsCategory reports whether text is exactly one of the category labels.
func IsCategory(text string) bool {
	for _, c := range categories {
		if text == c {
			return true
		}
	}
	return false
}
