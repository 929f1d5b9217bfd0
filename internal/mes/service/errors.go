package service

import "errors"

// 核心错误分类。服务层用 %w 包装并附带上下文，handler 层通过 errors.Is 映射状态码。
var (
	// ErrNotFound 引用的记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrInvalidTransition 状态机不允许该迁移
	ErrInvalidTransition = errors.New("当前状态不允许该操作")
	// ErrInsufficientInventory 可用库存不足
	ErrInsufficientInventory = errors.New("库存不足")
	// ErrDuplicateActiveVersion 同一产品存在多个激活版本
	ErrDuplicateActiveVersion = errors.New("该产品已存在激活版本")
	// ErrValidation 请求数据校验失败
	ErrValidation = errors.New("数据校验失败")
)
