package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/m-hollow/NoirDB/internal/model"
)

var (
	// ErrNotFound 目标记录不存在
	ErrNotFound = errors.New("not found")
	// ErrAmbiguous 期望唯一的记录出现多条
	ErrAmbiguous = errors.New("multiple records where one expected")
	// ErrIncompleteCredits 电影缺少必需的幕后人员
	ErrIncompleteCredits = errors.New("movie credits incomplete")
	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("already exists")
	// ErrSampleUnderflow 候选数量不足以抽样
	ErrSampleUnderflow = errors.New("not enough candidates to sample")
	// ErrForbidden 无权操作他人的数据
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput 输入校验失败
	ErrInvalidInput = errors.New("invalid input")
	// ErrBadHeader 邮件头包含换行
	ErrBadHeader = errors.New("invalid header found")
	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownAction 未知的状态操作
	ErrUnknownAction = model.ErrUnknownAction
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput 校验结构体，失败时包装为 ErrInvalidInput
func validateInput(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}
