package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameModel     = "model"
	FieldNamePath      = "path"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldModel 返回一个包含模型类型名的 zap 字段。
func FieldModel(model string) zap.Field {
	return zap.String(FieldNameModel, model)
}

// FieldPath 返回一个包含字段路径（如 connections[1].auth.username）的 zap 字段。
func FieldPath(path string) zap.Field {
	return zap.String(FieldNamePath, path)
}
