package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/eddwmvv/projetovereler-sub001/internal/model"
)

var registerOnce sync.Once

// RegisterValidators adds the domain binding tags to gin's validator:
// cnpj, uf, phase, phase_status, shift, frame_status, record_status
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		rules := map[string]func(string) bool{
			"cnpj":          model.ValidTaxID,
			"uf":            model.ValidStateCode,
			"phase":         func(s string) bool { return model.Phase(s).Valid() },
			"phase_status":  func(s string) bool { return model.PhaseStatus(s).Valid() },
			"shift":         model.ValidShift,
			"frame_status":  func(s string) bool { return model.FrameStatus(s).Valid() },
			"record_status": model.ValidRecordStatus,
		}
		for tag, fn := range rules {
			fn := fn
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return fn(fl.Field().String())
			})
		}
	})
}
