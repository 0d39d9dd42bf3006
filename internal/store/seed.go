package store

import "github.com/dogfacts/dogfacts/internal/fact"

// DefaultFacts is the collection written by `serve --seed` when no store exists.
func DefaultFacts() []fact.Fact {
	descriptions := []string{
		"Dogs have three eyelids",
		"A dog's nose print is as unique as a human fingerprint",
		"Dogs sweat through the pads of their paws",
		"Puppies are born deaf and blind",
		"A Greyhound can reach speeds of up to 45 miles per hour",
		"Dogs can smell about 10,000 to 100,000 times better than humans",
		"The Basenji is known as the barkless dog",
		"Dalmatian puppies are born completely white",
		"Dogs curl up to keep warm and protect their vital organs while sleeping",
		"A dog's sense of hearing is about four times as sensitive as a human's",
	}
	facts := make([]fact.Fact, len(descriptions))
	for i, d := range descriptions {
		facts[i] = fact.Fact{Description: d}
	}
	return facts
}
