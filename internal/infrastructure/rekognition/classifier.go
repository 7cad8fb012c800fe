package rekognition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"sync"

	"github.com/aimeal/backend/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

const maxLabels = 25

// DetectLabelsAPI is the subset of the Rekognition client used by Classifier
type DetectLabelsAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Classifier scores images against a fixed food vocabulary using label detection
type Classifier struct {
	client        DetectLabelsAPI
	classes       []string
	minConfidence float32
	buffers       sync.Pool
}

// NewClassifier wraps an existing client. classes is the vocabulary scores are indexed by.
func NewClassifier(client DetectLabelsAPI, classes []string, minConfidence float64) *Classifier {
	return &Classifier{
		client:        client,
		classes:       classes,
		minConfidence: float32(minConfidence),
		buffers: sync.Pool{
			New: func() any { return new(bytes.Buffer) },
		},
	}
}

// NewClassifierFromEnv builds a client from the default AWS credential chain.
// It fails when no region or credentials are configured.
func NewClassifierFromEnv(ctx context.Context, region string, classes []string, minConfidence float64) (*Classifier, error) {
	if region == "" {
		return nil, fmt.Errorf("%w: no AWS region configured for rekognition", domain.ErrCapabilityUnavailable)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("%w: unable to load AWS config: %v", domain.ErrCapabilityUnavailable, err)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("%w: no AWS credentials: %v", domain.ErrCapabilityUnavailable, err)
	}

	return NewClassifier(rekognition.NewFromConfig(cfg), classes, minConfidence), nil
}

// Classify returns one score per vocabulary class, in vocabulary order.
// A class scores the highest confidence among labels that name it.
func (c *Classifier) Classify(ctx context.Context, img image.Image) ([]domain.ClassScore, error) {
	if img == nil {
		return nil, domain.ErrInvalidImage
	}

	buf := c.buffers.Get().(*bytes.Buffer)
	buf.Reset()
	defer c.buffers.Put(buf)

	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}

	out, err := c.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: buf.Bytes()},
		MaxLabels:     aws.Int32(maxLabels),
		MinConfidence: aws.Float32(c.minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("detect labels: %w", err)
	}
	if out == nil {
		return nil, errors.New("detect labels: empty response")
	}

	return c.project(out.Labels), nil
}

// project maps detected labels onto the class vocabulary
func (c *Classifier) project(labels []types.Label) []domain.ClassScore {
	scores := make([]domain.ClassScore, len(c.classes))
	for i, class := range c.classes {
		scores[i].ClassName = class
	}

	for _, label := range labels {
		name := strings.ToLower(aws.ToString(label.Name))
		if name == "" {
			continue
		}
		p := float64(aws.ToFloat32(label.Confidence)) / 100
		for i, class := range c.classes {
			if matchesClass(name, class) && p > scores[i].Probability {
				scores[i].Probability = p
			}
		}
	}

	return scores
}

// wordJoiner drops the separators that differ between labels and class names
var wordJoiner = strings.NewReplacer(" ", "", "-", "", "_", "")

// matchesClass reports whether a label names a class, ignoring word
// separators and a plural "s" or "es"
func matchesClass(label, class string) bool {
	label, class = wordJoiner.Replace(label), wordJoiner.Replace(class)
	return label == class || label == class+"s" || strings.TrimSuffix(label, "es") == class
}
