package idl

import "fmt"

// Parse lexes and parses src into a File AST of struct/request/response
// and rpc declarations.
func Parse(src string) (*File, error) {
	toks, err := newLexer(src).tokens()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseFile()
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	t := p.peek()
	if t.kind != k {
		return token{}, fmt.Errorf("idl: line %d: expected %s, got %q", t.line, what, t.text)
	}
	return p.advance(), nil
}

func (p *parser) expectIdent(lit string) error {
	t := p.peek()
	if t.kind != tokIdent || t.text != lit {
		return fmt.Errorf("idl: line %d: expected %q, got %q", t.line, lit, t.text)
	}
	p.advance()
	return nil
}

func (p *parser) parseFile() (*File, error) {
	f := &File{}
	for p.peek().kind != tokEOF {
		t := p.peek()
		if t.kind != tokIdent {
			return nil, fmt.Errorf("idl: line %d: expected a declaration keyword, got %q", t.line, t.text)
		}
		switch t.text {
		case "struct", "request", "response":
			msg, err := p.parseMessage()
			if err != nil {
				return nil, err
			}
			f.Messages = append(f.Messages, *msg)
		case "rpc":
			svc, err := p.parseService()
			if err != nil {
				return nil, err
			}
			f.Services = append(f.Services, *svc)
		default:
			return nil, fmt.Errorf("idl: line %d: unknown declaration %q", t.line, t.text)
		}
	}
	return f, nil
}

func (p *parser) parseMessage() (*Message, error) {
	kindTok := p.advance()
	var kind MessageKind
	switch kindTok.text {
	case "request":
		kind = KindRequest
	case "response":
		kind = KindResponse
	default:
		kind = KindStruct
	}

	nameTok, err := p.expect(tokIdent, "message name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}

	msg := &Message{Kind: kind, Name: nameTok.text, Line: kindTok.line}
	for p.peek().kind != tokRBrace {
		if p.peek().kind == tokEOF {
			return nil, fmt.Errorf("idl: line %d: unterminated %s %s", kindTok.line, kindTok.text, nameTok.text)
		}
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		msg.Fields = append(msg.Fields, *field)
	}
	p.advance() // '}'
	return msg, nil
}

func (p *parser) parseField() (*Field, error) {
	uidTok, err := p.expect(tokNumber, "field uid")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon, "':'"); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tokIdent, "field name")
	if err != nil {
		return nil, err
	}

	field := &Field{UID: parseUint(uidTok.text), Type: *typ, Name: nameTok.text, Line: uidTok.line}

	if p.peek().kind == tokLBracket {
		p.advance()
		def, err := p.parseDefaultExpr()
		if err != nil {
			return nil, err
		}
		field.Default = def
	}

	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return nil, err
	}
	for p.peek().kind == tokSemi {
		p.advance() // grammar allows ';'+ per the original regex
	}
	return field, nil
}

func (p *parser) parseType() (*FieldType, error) {
	t, err := p.expect(tokIdent, "field type")
	if err != nil {
		return nil, err
	}
	if t.text != "list" {
		return &FieldType{Name: t.text}, nil
	}
	if _, err := p.expect(tokLBracket, "'['"); err != nil {
		return nil, err
	}
	elem, err := p.expect(tokIdent, "list element type")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRBracket, "']'"); err != nil {
		return nil, err
	}
	return &FieldType{Name: elem.text, List: true}, nil
}

// parseDefaultExpr consumes tokens up to the closing ']' and returns
// their concatenated source text, e.g. "0", "true", "\"hello\"".
func (p *parser) parseDefaultExpr() (string, error) {
	start := p.pos
	for p.peek().kind != tokRBracket {
		if p.peek().kind == tokEOF {
			return "", fmt.Errorf("idl: line %d: unterminated default expression", p.toks[start].line)
		}
		p.advance()
	}
	var text string
	for i := start; i < p.pos; i++ {
		text += p.toks[i].text
	}
	p.advance() // ']'
	return text, nil
}

func (p *parser) parseService() (*Service, error) {
	rpcTok := p.advance() // "rpc"
	nameTok, err := p.expect(tokIdent, "service name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}

	svc := &Service{Name: nameTok.text, Line: rpcTok.line}
	for p.peek().kind != tokRBrace {
		if p.peek().kind == tokEOF {
			return nil, fmt.Errorf("idl: line %d: unterminated rpc %s", rpcTok.line, nameTok.text)
		}
		call, err := p.parseCall()
		if err != nil {
			return nil, err
		}
		svc.Calls = append(svc.Calls, *call)
	}
	p.advance() // '}'
	return svc, nil
}

func (p *parser) parseCall() (*Call, error) {
	uidTok, err := p.expect(tokNumber, "call uid")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon, "':'"); err != nil {
		return nil, err
	}
	modeTok, err := p.expect(tokIdent, "'sync' or 'async'")
	if err != nil {
		return nil, err
	}
	if modeTok.text != "sync" && modeTok.text != "async" {
		return nil, fmt.Errorf("idl: line %d: expected 'sync' or 'async', got %q", modeTok.line, modeTok.text)
	}
	nameTok, err := p.expect(tokIdent, "call name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return nil, err
	}
	for p.peek().kind == tokSemi {
		p.advance()
	}
	return &Call{UID: parseUint(uidTok.text), Async: modeTok.text == "async", Name: nameTok.text, Line: uidTok.line}, nil
}

func parseUint(s string) uint64 {
	var v uint64
	for i := 0; i < len(s); i++ {
		v = v*10 + uint64(s[i]-'0')
	}
	return v
}
