package coco

import (
	"fmt"
	"math/rand/v2"
)

// Split shuffles the images with a PRNG seeded by seed and divides them into
// a train set holding floor(n*rate) images and a val set with the rest. Both
// sets carry the full category list. rate must be in (0, 1).
func Split(d *Dataset, rate float64, seed uint64) (train, val *Dataset, err error) {
	if rate <= 0 || rate >= 1 {
		return nil, nil, fmt.Errorf("train split rate must be between 0 and 1, got %v", rate)
	}

	order := make([]int, len(d.Images))
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	nTrain := int(float64(len(order)) * rate)

	train = &Dataset{Categories: d.Categories}
	val = &Dataset{Categories: d.Categories}
	for i, idx := range order {
		if i < nTrain {
			train.AddImage(d.Images[idx])
		} else {
			val.AddImage(d.Images[idx])
		}
	}

	return train, val, nil
}
