package dataset

import (
	"math"
	"math/rand"

	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
)

// Assignment places one video group in a split.
type Assignment struct {
	Key   string
	Split entity.Split
}

// Shuffle returns a permutation of keys drawn from a generator seeded with seed.
// The input slice is left untouched.
func Shuffle(keys []string, seed int64) []string {
	out := append([]string(nil), keys...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Partition assigns already shuffled keys to splits by position:
// [0,cut1) train, [cut1,cut2) valid, [cut2,n) test.
func Partition(keys []string, p entity.Proportions) []Assignment {
	n := len(keys)
	cut1 := clampIndex(float64(n)*p.Train, n)
	cut2 := clampIndex(float64(n)*(p.Train+p.Valid), n)

	out := make([]Assignment, 0, n)
	for i, k := range keys {
		s := entity.SplitTest
		switch {
		case i < cut1:
			s = entity.SplitTrain
		case i < cut2:
			s = entity.SplitValid
		}
		out = append(out, Assignment{Key: k, Split: s})
	}
	return out
}

func clampIndex(x float64, n int) int {
	switch {
	case math.IsNaN(x) || x < 0:
		return 0
	case x > float64(n):
		return n
	}
	return int(math.Floor(x))
}
