package model

import (
	"github.com/lk2023060901/querydesk-go/pkg/serde"
)

type CatalogKind string

const (
	CatalogDatabase CatalogKind = "database"
	CatalogSchema   CatalogKind = "schema"
	CatalogTable    CatalogKind = "table"
	CatalogView     CatalogKind = "view"
	CatalogColumn   CatalogKind = "column"
)

// CatalogNode 为目录树中的一个节点，Children 递归引用同一模型。
type CatalogNode struct {
	Kind     CatalogKind
	Name     string
	Path     []string
	DataType string
	Comment  string
	Children []*CatalogNode
}

// Walk 以先序遍历访问 n 及其所有子节点，fn 返回 false 时停止下探该节点的子树。
func (n *CatalogNode) Walk(fn func(node *CatalogNode, depth int) bool) {
	n.walk(fn, 0)
}

func (n *CatalogNode) walk(fn func(*CatalogNode, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

func init() {
	serde.MustRegister[CatalogNode](serde.Default,
		serde.Field("Kind", serde.String, serde.Name("kind"), serde.Required(),
			serde.OneOf(string(CatalogDatabase), string(CatalogSchema), string(CatalogTable), string(CatalogView), string(CatalogColumn))),
		serde.Field("Name", serde.String, serde.Name("name"), serde.Required(), serde.MinLength(1)),
		serde.Field("Path", serde.Array, serde.Name("path"), serde.Items(serde.String)),
		serde.Field("DataType", serde.String, serde.Name("dataType"), serde.OmitEmpty()),
		serde.Field("Comment", serde.String, serde.Name("comment"), serde.OmitEmpty()),
		serde.Field("Children", serde.Array, serde.Name("children"),
			serde.Items(serde.Object, serde.WithFactory(serde.New[CatalogNode]()))),
	)
}
