package preprocessing

import (
	"fmt"

	"github.com/YuminosukeSato/scieval/core/model"
	"github.com/YuminosukeSato/scieval/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Pipeline はスケーラーと分類器を連結する
//
// Fit はスケーラーを学習データで学習してから分類器を学習する。
// Clone は両方のステップを未学習状態で複製するため、交差検証の
// 各フォールドでスケーラーが検証データを見ることはない。
type Pipeline struct {
	scaler     Scaler
	classifier model.Classifier
}

// NewPipeline は新しいPipelineを作成する
//
// 使用例:
//
//	pipe := preprocessing.NewPipeline(
//		preprocessing.NewStandardScalerDefault(),
//		linear_model.NewLogisticRegression(),
//	)
func NewPipeline(scaler Scaler, classifier model.Classifier) *Pipeline {
	return &Pipeline{scaler: scaler, classifier: classifier}
}

func (p *Pipeline) validate(op string) error {
	if p.scaler == nil {
		return errors.NewValueError(op, "pipeline has no scaler")
	}
	if p.classifier == nil {
		return errors.NewValueError(op, "pipeline has no classifier")
	}
	return nil
}

// Fit はスケーラーと分類器を順に学習する
func (p *Pipeline) Fit(X, y mat.Matrix) error {
	if err := p.validate("Pipeline.Fit"); err != nil {
		return err
	}
	if err := p.scaler.Fit(X); err != nil {
		return errors.Wrapf(err, "fit %s", model.Name(p.scaler))
	}
	Xt, err := p.scaler.Transform(X)
	if err != nil {
		return errors.Wrapf(err, "transform %s", model.Name(p.scaler))
	}
	if err := p.classifier.Fit(Xt, y); err != nil {
		return errors.Wrapf(err, "fit %s", model.Name(p.classifier))
	}
	return nil
}

func (p *Pipeline) transform(op string, X mat.Matrix) (mat.Matrix, error) {
	if err := p.validate(op); err != nil {
		return nil, err
	}
	return p.scaler.Transform(X)
}

// Predict はスケーリング後のデータでラベルを予測する
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	Xt, err := p.transform("Pipeline.Predict", X)
	if err != nil {
		return nil, err
	}
	return p.classifier.Predict(Xt)
}

// PredictProba はスケーリング後のデータでクラス確率を予測する
func (p *Pipeline) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	Xt, err := p.transform("Pipeline.PredictProba", X)
	if err != nil {
		return nil, err
	}
	return p.classifier.PredictProba(Xt)
}

// Classes returns the labels of the final classifier.
func (p *Pipeline) Classes() []float64 {
	if p.classifier == nil {
		return nil
	}
	return p.classifier.Classes()
}

// Clone returns an unfitted copy of both steps.
func (p *Pipeline) Clone() model.Estimator {
	var scaler Scaler
	if p.scaler != nil {
		scaler = p.scaler.Clone()
	}
	var classifier model.Classifier
	if p.classifier != nil {
		// Classifier.Clone は Classifier を返す契約
		classifier, _ = p.classifier.Clone().(model.Classifier)
	}
	return NewPipeline(scaler, classifier)
}

// Steps returns the scaler and the classifier.
func (p *Pipeline) Steps() (Scaler, model.Classifier) {
	return p.scaler, p.classifier
}

// String はパイプラインの文字列表現を返す
func (p *Pipeline) String() string {
	return fmt.Sprintf("Pipeline(%s, %s)", model.Name(p.scaler), model.Name(p.classifier))
}
