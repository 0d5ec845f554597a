package services

import (
	"regexp"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/filmatch/filmatch/internal/config"
	"github.com/filmatch/filmatch/pkg/models"
)

// tokenPattern matches word tokens of two or more characters, the same
// vocabulary rule the rest of the scoring math assumes.
var tokenPattern = regexp.MustCompile(`\w\w+`)

// SimilarityScorer blends pairwise text similarity with candidate popularity
// and rating. The TF-IDF model is fit per comparison over the two-document
// corpus {target, candidate}; IDF is deliberately local to each pair, so the
// same candidate can contribute different text scores against different
// targets. Changing this to a corpus-wide fit would change every score.
type SimilarityScorer struct {
	textWeight       float64
	popularityWeight float64
	ratingWeight     float64
}

func NewSimilarityScorer(cfg *config.RecommendationConfig) *SimilarityScorer {
	return &SimilarityScorer{
		textWeight:       cfg.TextWeight,
		popularityWeight: cfg.PopularityWeight,
		ratingWeight:     cfg.RatingWeight,
	}
}

// Score returns the blended score of a candidate against a target:
// textWeight*cosine + popularityWeight*(popularity/100) + ratingWeight*(vote/10).
// Popularity is assumed near [0,100] and vote average in [0,10]; out-of-range
// values are passed through unclamped.
func (s *SimilarityScorer) Score(target, candidate *models.MovieFeatures) float64 {
	textSimilarity := pairwiseTFIDFCosine(target.FeatureText(), candidate.FeatureText())

	return textSimilarity*s.textWeight +
		(candidate.Popularity/100)*s.popularityWeight +
		(candidate.VoteAverage/10)*s.ratingWeight
}

// TextSimilarity exposes the cosine term on its own.
func (s *SimilarityScorer) TextSimilarity(target, candidate *models.MovieFeatures) float64 {
	return pairwiseTFIDFCosine(target.FeatureText(), candidate.FeatureText())
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// pairwiseTFIDFCosine vectorizes the two texts with a TF-IDF model fit on
// just this pair and returns their cosine similarity. Term weights use
// smoothed IDF, ln((1+n)/(1+df))+1 with n=2, and raw term counts, then each
// vector is l2-normalized; identical token bags therefore score exactly 1.
// An empty token bag on either side yields 0 instead of an error.
func pairwiseTFIDFCosine(targetText, candidateText string) float64 {
	targetTokens := tokenize(targetText)
	candidateTokens := tokenize(candidateText)
	if len(targetTokens) == 0 || len(candidateTokens) == 0 {
		return 0
	}

	vocab := make(map[string]int)
	for _, tok := range targetTokens {
		if _, ok := vocab[tok]; !ok {
			vocab[tok] = len(vocab)
		}
	}
	for _, tok := range candidateTokens {
		if _, ok := vocab[tok]; !ok {
			vocab[tok] = len(vocab)
		}
	}

	targetVec := termFrequencies(targetTokens, vocab)
	candidateVec := termFrequencies(candidateTokens, vocab)

	// Smoothed IDF over the two-document corpus.
	// ln(3/3)+1 = 1 for shared terms, ln(3/2)+1 for terms in one document.
	const (
		idfShared = 1.0
		idfSingle = 1.4054651081081644 // math.Log(1.5) + 1
	)
	for i := range targetVec {
		idf := idfSingle
		if targetVec[i] > 0 && candidateVec[i] > 0 {
			idf = idfShared
		}
		targetVec[i] *= idf
		candidateVec[i] *= idf
	}

	targetNorm := floats.Norm(targetVec, 2)
	candidateNorm := floats.Norm(candidateVec, 2)
	if targetNorm == 0 || candidateNorm == 0 {
		return 0
	}
	floats.Scale(1/targetNorm, targetVec)
	floats.Scale(1/candidateNorm, candidateVec)

	return floats.Dot(targetVec, candidateVec)
}

func termFrequencies(tokens []string, vocab map[string]int) []float64 {
	vec := make([]float64, len(vocab))
	for _, tok := range tokens {
		vec[vocab[tok]]++
	}
	return vec
}
