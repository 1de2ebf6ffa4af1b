package cgen

// Decl is one top-level C declaration.
type Decl interface {
	isDecl()
}

type Enumerator struct {
	Name  string
	Value int64
}

// Enum is a tagged enum declaration: enum Tag {a = 1, b = 2};
type Enum struct {
	Tag         string
	Enumerators []Enumerator
}

// Member is one struct member. Len is the element count of an array member
// and zero for a scalar.
type Member struct {
	Type string
	Name string
	Len  int
}

type Struct struct {
	Tag     string
	Members []Member
}

// Typedef aliases a tagged declaration: typedef Keyword Tag Name;
type Typedef struct {
	Keyword string
	Tag     string
	Name    string
}

// Var is a top-level variable declaration.
type Var struct {
	Type string
	Name string
	Len  int
}

func (*Enum) isDecl()    {}
func (*Struct) isDecl()  {}
func (*Typedef) isDecl() {}
func (*Var) isDecl()     {}
