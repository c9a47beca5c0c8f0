package onnx

import (
	"context"
	"fmt"
	"sync"

	"course-buddy-be/pkg/embedding"

	tokenizer "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// maxSequence is the context window of all-MiniLM-L6-v2.
const maxSequence = 256

type Config struct {
	ModelPath     string
	TokenizerPath string
	// SharedLibraryPath points at libonnxruntime; empty uses the loader default.
	SharedLibraryPath string
}

// Provider runs a sentence-transformers model in-process and mean-pools
// the last hidden state into a single unit vector.
type Provider struct {
	tok     *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
}

var envOnce sync.Once
var envErr error

func NewProvider(cfg Config) (*Provider, error) {
	tok, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	envOnce.Do(func() {
		if cfg.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
		}
		envErr = ort.InitializeEnvironment()
	})
	if envErr != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", envErr)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()

	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("failed to set graph optimization: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Provider{tok: tok, session: session}, nil
}

func (p *Provider) Generate(ctx context.Context, text string) (*embedding.EmbeddingResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encodings, err := p.tok.EncodeBatch([]tokenizer.EncodeInput{
		tokenizer.NewSingleEncodeInput(tokenizer.NewInputSequence(text)),
	}, true)
	if err != nil {
		return nil, fmt.Errorf("tokenization failed: %w", err)
	}
	if len(encodings) == 0 {
		return nil, fmt.Errorf("tokenizer returned no encoding")
	}

	ids := encodings[0].GetIds()
	mask := encodings[0].GetAttentionMask()
	if len(ids) > maxSequence {
		ids = ids[:maxSequence]
		mask = mask[:maxSequence]
	}
	seqLen := len(ids)

	inputIds := make([]int64, seqLen)
	attentionMask := make([]int64, seqLen)
	tokenTypeIds := make([]int64, seqLen)
	for i := range ids {
		inputIds[i] = int64(ids[i])
		attentionMask[i] = int64(mask[i])
	}

	shape := ort.NewShape(1, int64(seqLen))
	inputIdsTensor, err := ort.NewTensor(shape, inputIds)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer inputIdsTensor.Destroy()

	attentionMaskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer attentionMaskTensor.Destroy()

	tokenTypeIdsTensor, err := ort.NewTensor(shape, tokenTypeIds)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	defer tokenTypeIdsTensor.Destroy()

	outputs := make([]ort.Value, 1)
	if err := p.session.Run(
		[]ort.Value{inputIdsTensor, attentionMaskTensor, tokenTypeIdsTensor},
		outputs,
	); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("output tensor is not float32 type")
	}

	// [1, seq_len, hidden]
	hidden := int(outputTensor.GetShape()[2])
	pooled := MeanPool(outputTensor.GetData(), attentionMask, hidden)

	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{
			Values: embedding.Normalize(pooled),
		},
	}, nil
}

// MeanPool averages token vectors weighted by the attention mask.
// data is a flattened [len(mask), hidden] matrix.
func MeanPool(data []float32, mask []int64, hidden int) []float32 {
	out := make([]float32, hidden)
	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := data[t*hidden : (t+1)*hidden]
		for j, v := range row {
			out[j] += v
		}
		count++
	}
	if count == 0 {
		return out
	}
	for j := range out {
		out[j] /= count
	}
	return out
}

func (p *Provider) Close() error {
	if p.session != nil {
		return p.session.Destroy()
	}
	return nil
}
