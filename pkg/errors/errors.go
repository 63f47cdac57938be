package errors

import "errors"

// ErrStaleWrite 条件更新未命中：计数已被并发操作修改或已达边界
var ErrStaleWrite = errors.New("数据已被其他操作修改，请刷新后重试")
