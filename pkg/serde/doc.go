// Package serde 实现基于声明式字段描述的模型（反）序列化。
//
// 每个模型类型在启动阶段（通常是包的 init）通过 Register 注册一组 FieldSpec，
// 注册表据此生成每个字段的序列化/反序列化函数并计算依赖顺序。注册完成后 Schema
// 不再变化，Deserialize/Serialize 可被任意 goroutine 并发调用。
//
//	serde.MustRegister[Connection](serde.Default,
//		serde.Field("ID", serde.Identifier, serde.Name("id"), serde.Required()),
//		serde.Field("Tags", serde.Array, serde.Name("tags"), serde.Items(serde.String)),
//	)
//
//	conn, err := serde.Unmarshal[Connection](nil, data, "connection")
package serde
