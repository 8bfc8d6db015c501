package compiler

import (
	"jerboa/pkg/bytecode"
	"jerboa/pkg/errors"
	"jerboa/pkg/lexer"
	"jerboa/pkg/lit"
	"jerboa/pkg/mempool"
)

// evalRetStore indicates whether the result of an expression statement must
// be stored into the eval-return register.
type evalRetStore uint8

const (
	evalRetStoreNotDump evalRetStore = iota
	evalRetStoreDump
)

// parser drives the single-pass compilation: it pulls tokens from the lexer,
// invokes the dumper for each semantic action and maintains the scope and
// label stacks. Per-compilation state lives here; the scope pool and literal
// table are borrowed from the Compiler and shared by its parsers.
type parser struct {
	lex *lexer.Lexer
	tok lexer.Token

	d      *dumper
	lits   *lit.Table
	labels labelManager
	ee     earlyErrorChecker

	scopes    []*Scope
	scopePool *mempool.Pool[Scope]

	insideEval     bool
	insideFunction bool
	optimize       bool
}

func (p *parser) curScope() *Scope {
	return p.scopes[len(p.scopes)-1]
}

func (p *parser) pushScope(s *Scope) {
	p.scopes = append(p.scopes, s)
	p.d.setScope(s)
	p.lex.SetStrictMode(s.strictMode)
}

func (p *parser) popScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
	p.d.setScope(p.curScope())
	p.lex.SetStrictMode(p.curScope().strictMode)
}

func (p *parser) isStrictMode() bool {
	return p.curScope().strictMode
}

func (p *parser) pos() errors.Position {
	return errors.Position{Line: p.tok.Line, Column: p.tok.Column, Offset: p.tok.Pos}
}

// --- Token plumbing ---

func (p *parser) setToken(tok lexer.Token) {
	if tok.Type == lexer.ILLEGAL {
		raiseSyntax(errors.Position{Line: tok.Line, Column: tok.Column, Offset: tok.Pos}, "%s", tok.Text)
	}
	p.tok = tok
}

func (p *parser) skipToken() {
	p.setToken(p.lex.NextToken(false))
}

func (p *parser) skipNewlines() {
	for {
		p.skipToken()
		if p.tok.Type != lexer.NEWLINE {
			return
		}
	}
}

func (p *parser) tokenIs(tt lexer.TokenType) bool {
	return p.tok.Type == tt
}

func (p *parser) currentTokenMustBe(tt lexer.TokenType) {
	if !p.tokenIs(tt) {
		raiseSyntax(p.pos(), "Expected '%s' token", tt)
	}
}

func (p *parser) nextTokenMustBe(tt lexer.TokenType) {
	p.skipToken()
	p.currentTokenMustBe(tt)
}

func (p *parser) tokenAfterNewlinesMustBe(tt lexer.TokenType) {
	p.skipNewlines()
	p.currentTokenMustBe(tt)
}

// rescanRegexpToken re-reads a token scanned as a division operator as the
// start of a regular-expression literal.
func (p *parser) rescanRegexpToken() {
	p.lex.Seek(p.tok.Pos)
	p.setToken(p.lex.NextToken(true))
}

// seekTo repositions the lexer and re-reads the token at pos.
func (p *parser) seekTo(pos int) {
	p.lex.Seek(pos)
	p.setToken(p.lex.NextToken(false))
}

// skipBraces skips a balanced block opened by the current (, { or [ token.
// A missing closing bracket is a syntax error.
func (p *parser) skipBraces(open lexer.TokenType) {
	p.currentTokenMustBe(open)

	var close lexer.TokenType
	switch open {
	case lexer.LPAREN:
		close = lexer.RPAREN
	case lexer.LBRACE:
		close = lexer.RBRACE
	default:
		close = lexer.RBRACKET
	}

	p.skipNewlines()
	for !p.tokenIs(close) && !p.tokenIs(lexer.EOF) {
		if p.tokenIs(lexer.LPAREN) || p.tokenIs(lexer.LBRACE) || p.tokenIs(lexer.LBRACKET) {
			p.skipBraces(p.tok.Type)
		}
		p.skipNewlines()
	}
	p.currentTokenMustBe(close)
}

// findNextTokenBeforePos scans for the next token of the given type before
// endPos. When skipBraceBlocks is set, {}-blocks are skipped whole and an
// unmatched } is a syntax error. On success the found token is current;
// otherwise the lexer is left at endPos.
func (p *parser) findNextTokenBeforePos(tt lexer.TokenType, endPos int, skipBraceBlocks bool) bool {
	for p.tok.Pos < endPos {
		if skipBraceBlocks {
			if p.tokenIs(lexer.LBRACE) {
				p.skipBraces(lexer.LBRACE)
				p.skipNewlines()
				if p.tok.Pos >= endPos {
					p.seekTo(endPos)
					return false
				}
			} else if p.tokenIs(lexer.RBRACE) {
				raiseSyntax(p.pos(), "Unmatched } brace")
			}
		}
		if p.tokenIs(tt) {
			return true
		}
		if p.tokenIs(lexer.EOF) {
			raiseSyntax(p.pos(), "Unexpected end of source")
		}
		p.skipNewlines()
	}
	return false
}

// --- Scope plumbing ---

func (p *parser) newFunctionScope(attached bool) *Scope {
	parent := p.curScope()
	parent.containsFunctions = true

	s := p.scopePool.Get()
	if attached {
		newScopeNode(s, parent, ScopeFunction)
	} else {
		newScopeNode(s, nil, ScopeFunction)
	}
	s.strictMode = parent.strictMode
	return s
}

/* property_name
   : Identifier
   | Keyword
   | StringLiteral
   | NumericLiteral
   ; */
func (p *parser) parsePropertyName() operand {
	switch p.tok.Type {
	case lexer.NAME, lexer.STRING:
		return literalOperand(p.tok.Lit)
	case lexer.SMALLINT:
		s := lit.NumberToString(float64(p.tok.SmallInt))
		return literalOperand(p.lits.FindOrCreate(s))
	case lexer.NUMBER:
		l := p.lits.Get(p.tok.Lit)
		return literalOperand(p.lits.FindOrCreate(lit.NumberToString(l.Num)))
	case lexer.NULL:
		return literalOperand(p.lits.FindOrCreate("null"))
	case lexer.BOOL:
		if p.tok.SmallInt != 0 {
			return literalOperand(p.lits.FindOrCreate("true"))
		}
		return literalOperand(p.lits.FindOrCreate("false"))
	case lexer.RESERVED:
		return literalOperand(p.lits.FindOrCreate(p.tok.Text))
	default:
		if p.tok.IsKeyword() {
			return literalOperand(p.lits.FindOrCreate(p.tok.Text))
		}
		raiseSyntax(p.pos(), "Wrong property name type: %s", p.tok.Type)
		return operand{}
	}
}

/* property_name_and_value
   : property_name LT!* ':' LT!* assignment_expression
   ; */
func (p *parser) parsePropertyNameAndValue() {
	name := p.parsePropertyName()
	p.tokenAfterNewlinesMustBe(lexer.COLON)
	p.skipNewlines()
	value := p.parseAssignmentExpression(true)
	p.d.dumpPropNameAndValue(name, value)
	p.ee.addPropName(name, propData)
}

/* property_assignment
   : property_name_and_value
   | get LT!* property_name LT!* '(' LT!* ')' LT!* '{' LT!* function_body LT!* '}'
   | set LT!* property_name LT!* '(' identifier ')' LT!* '{' LT!* function_body LT!* '}'
   ; */
func (p *parser) parsePropertyAssignment() {
	if !p.tokenIs(lexer.NAME) {
		p.parsePropertyNameAndValue()
		return
	}

	var isSetter bool
	switch {
	case p.lits.IsString(p.tok.Lit, "get"):
		isSetter = false
	case p.lits.IsString(p.tok.Lit, "set"):
		isSetter = true
	default:
		p.parsePropertyNameAndValue()
		return
	}

	// Peek: `get`/`set` followed by a colon is an ordinary property.
	temp := p.tok
	p.skipNewlines()
	if p.tokenIs(lexer.COLON) {
		p.lex.SaveToken(p.tok)
		p.tok = temp
		p.parsePropertyNameAndValue()
		return
	}

	name := p.parsePropertyName()
	if isSetter {
		p.ee.addPropName(name, propSet)
	} else {
		p.ee.addPropName(name, propGet)
	}

	fnScope := p.newFunctionScope(false)
	p.pushScope(fnScope)

	p.ee.startCheckingOfVargs()

	p.skipNewlines()
	fn := p.parseArgumentList(vargFuncExpr, emptyOperand(), nil)

	p.d.dumpFunctionEndForRewrite()

	p.tokenAfterNewlinesMustBe(lexer.LBRACE)
	p.skipNewlines()

	wasInFunction := p.insideFunction
	p.insideFunction = true

	masked := p.labels.maskSet()
	p.parseSourceElementList(false, true)
	p.labels.restoreSet(masked)

	p.tokenAfterNewlinesMustBe(lexer.RBRACE)

	p.d.dumpRet()
	p.d.rewriteFunctionEnd()

	p.insideFunction = wasInFunction

	p.ee.checkVargs(p.isStrictMode(), p.pos())

	p.popScope()
	fnScope.attachTo(p.curScope())

	if isSetter {
		p.d.dumpPropSetterDecl(name, fn)
	} else {
		p.d.dumpPropGetterDecl(name, fn)
	}
}

// parseArgumentList parses a comma-separated list of identifiers, assignment
// expressions or property assignments — the bodies of the six N-ary
// constructs — dumping a varg header first and patching its argument count
// once known.
func (p *parser) parseArgumentList(vlt vargListType, obj operand, thisArgP *operand) operand {
	closeTT := lexer.RPAREN
	argsNum := 0

	switch vlt {
	case vargFuncDecl, vargFuncExpr, vargConstructExpr:
		p.currentTokenMustBe(lexer.LPAREN)
		p.d.dumpVargHeaderForRewrite(vlt, obj)

	case vargCallExpr:
		p.currentTokenMustBe(lexer.LPAREN)

		var callFlags bytecode.CallFlags
		thisArg := emptyOperand()
		if thisArgP != nil && !thisArgP.isEmpty() {
			callFlags |= bytecode.CallFlagHaveThisArg
			if thisArgP.isLiteral() {
				thisArg = p.d.dumpVariableAssignmentRes(*thisArgP)
			} else {
				thisArg = *thisArgP
			}
		} else if p.d.isEvalLiteral(obj) {
			callFlags |= bytecode.CallFlagDirectCallToEval
		}

		p.d.dumpVargHeaderForRewrite(vlt, obj)

		if callFlags != 0 {
			if callFlags&bytecode.CallFlagHaveThisArg != 0 {
				p.d.dumpCallAdditionalInfo(callFlags, thisArg)
			} else {
				p.d.dumpCallAdditionalInfo(callFlags, emptyOperand())
			}
		}

	case vargArrayDecl:
		p.currentTokenMustBe(lexer.LBRACKET)
		closeTT = lexer.RBRACKET
		p.d.dumpVargHeaderForRewrite(vlt, obj)

	case vargObjDecl:
		p.currentTokenMustBe(lexer.LBRACE)
		closeTT = lexer.RBRACE
		p.d.dumpVargHeaderForRewrite(vlt, obj)
		p.ee.startCheckingOfPropNames()
	}

	p.skipNewlines()
	for !p.tokenIs(closeTT) {
		p.d.startVargCodeSequence()

		switch vlt {
		case vargFuncDecl, vargFuncExpr:
			p.currentTokenMustBe(lexer.NAME)
			op := literalOperand(p.tok.Lit)
			p.ee.addVarg(op)
			p.curScope().addVariable(p.tok.Lit, true)
			p.d.dumpVarg(op)
			p.skipNewlines()

		case vargConstructExpr, vargCallExpr:
			op := p.parseAssignmentExpression(true)
			p.d.dumpVarg(op)
			p.skipNewlines()

		case vargArrayDecl:
			if p.tokenIs(lexer.COMMA) {
				op := p.d.dumpArrayHoleAssignmentRes()
				p.d.dumpVarg(op)
			} else {
				op := p.parseAssignmentExpression(true)
				p.d.dumpVarg(op)
				p.skipNewlines()
			}

		case vargObjDecl:
			p.parsePropertyAssignment()
			p.skipNewlines()
		}

		if p.tokenIs(lexer.COMMA) {
			p.skipNewlines()
		} else {
			p.currentTokenMustBe(closeTT)
		}

		argsNum++
		p.d.finishVargCodeSequence()
	}

	if vlt == vargObjDecl {
		p.ee.checkPropNames(p.isStrictMode(), p.pos())
	}
	return p.d.rewriteVargHeaderSetArgsCount(argsNum)
}

/* function_declaration
   : 'function' LT!* Identifier LT!*
     '(' (LT!* Identifier (LT!* ',' LT!* Identifier)*) ? LT!* ')' LT!* function_body
   ; */
func (p *parser) parseFunctionDeclaration() {
	p.currentTokenMustBe(lexer.FUNCTION)

	masked := p.labels.maskSet()

	fnScope := p.newFunctionScope(true)
	p.pushScope(fnScope)

	p.tokenAfterNewlinesMustBe(lexer.NAME)
	name := literalOperand(p.tok.Lit)

	p.skipNewlines()

	p.ee.startCheckingOfVargs()
	p.parseArgumentList(vargFuncDecl, name, nil)

	p.d.dumpFunctionEndForRewrite()

	p.tokenAfterNewlinesMustBe(lexer.LBRACE)
	p.skipNewlines()

	wasInFunction := p.insideFunction
	p.insideFunction = true

	p.parseSourceElementList(false, true)

	p.nextTokenMustBe(lexer.RBRACE)

	p.d.dumpRet()
	p.d.rewriteFunctionEnd()

	p.insideFunction = wasInFunction

	p.ee.checkForEvalAndArguments(name, p.isStrictMode(), p.pos())
	p.ee.checkVargs(p.isStrictMode(), p.pos())

	p.popScope()

	p.labels.restoreSet(masked)
}

/* function_expression
   : 'function' LT!* Identifier? LT!* '(' formal_parameter_list? LT!* ')' LT!* function_body
   ; */
func (p *parser) parseFunctionExpression() operand {
	p.currentTokenMustBe(lexer.FUNCTION)

	p.ee.startCheckingOfVargs()

	fnScope := p.newFunctionScope(false)
	p.pushScope(fnScope)

	p.skipNewlines()

	var res operand
	name := emptyOperand()
	if p.tokenIs(lexer.NAME) {
		name = literalOperand(p.tok.Lit)
		p.skipNewlines()
		res = p.parseArgumentList(vargFuncExpr, name, nil)
	} else {
		p.lex.SaveToken(p.tok)
		p.skipNewlines()
		res = p.parseArgumentList(vargFuncExpr, emptyOperand(), nil)
	}

	p.d.dumpFunctionEndForRewrite()

	p.tokenAfterNewlinesMustBe(lexer.LBRACE)
	p.skipNewlines()

	wasInFunction := p.insideFunction
	p.insideFunction = true

	masked := p.labels.maskSet()
	p.parseSourceElementList(false, true)
	p.labels.restoreSet(masked)

	p.nextTokenMustBe(lexer.RBRACE)

	p.d.dumpRet()
	p.d.rewriteFunctionEnd()

	p.insideFunction = wasInFunction

	p.ee.checkForEvalAndArguments(name, p.isStrictMode(), p.pos())
	p.ee.checkVargs(p.isStrictMode(), p.pos())

	p.popScope()
	fnScope.attachTo(p.curScope())

	return res
}

func (p *parser) parseArrayLiteral() operand {
	return p.parseArgumentList(vargArrayDecl, emptyOperand(), nil)
}

func (p *parser) parseObjectLiteral() operand {
	return p.parseArgumentList(vargObjDecl, emptyOperand(), nil)
}

/* literal
   : 'null' | 'true' | 'false' | number_literal | string_literal | regexp_literal
   ; */
func (p *parser) parseLiteral() operand {
	switch p.tok.Type {
	case lexer.NUMBER:
		return p.d.dumpNumberAssignmentRes(p.tok.Lit)
	case lexer.STRING:
		return p.d.dumpStringAssignmentRes(p.tok.Lit)
	case lexer.REGEXP:
		return p.d.dumpRegexpAssignmentRes(p.tok.Lit)
	case lexer.NULL:
		return p.d.dumpNullAssignmentRes()
	case lexer.BOOL:
		return p.d.dumpBooleanAssignmentRes(p.tok.SmallInt != 0)
	case lexer.SMALLINT:
		return p.d.dumpSmallintAssignmentRes(p.tok.SmallInt)
	default:
		raiseSyntax(p.pos(), "Expected literal")
		return operand{}
	}
}

/* primary_expression
   : 'this' | Identifier | literal
   | '[' LT!* array_literal LT!* ']'
   | '{' LT!* object_literal LT!* '}'
   | '(' LT!* expression LT!* ')'
   ; */
func (p *parser) parsePrimaryExpression() operand {
	switch p.tok.Type {
	case lexer.THIS:
		return p.d.dumpThisRes()
	case lexer.DIV, lexer.DIVASSIGN:
		// must be a regexp literal so rescan the token
		p.rescanRegexpToken()
		return p.parseLiteral()
	case lexer.NULL, lexer.BOOL, lexer.SMALLINT, lexer.NUMBER, lexer.REGEXP, lexer.STRING:
		return p.parseLiteral()
	case lexer.NAME:
		if p.lits.IsString(p.tok.Lit, "arguments") {
			p.curScope().refArguments = true
		}
		if p.lits.IsString(p.tok.Lit, "eval") {
			p.curScope().refEval = true
		}
		return literalOperand(p.tok.Lit)
	case lexer.LBRACKET:
		return p.parseArrayLiteral()
	case lexer.LBRACE:
		return p.parseObjectLiteral()
	case lexer.LPAREN:
		p.skipNewlines()
		if !p.tokenIs(lexer.RPAREN) {
			res := p.parseExpression(true, evalRetStoreNotDump)
			p.tokenAfterNewlinesMustBe(lexer.RPAREN)
			return res
		}
	}
	raiseSyntax(p.pos(), "Unknown token %s", p.tok.Type)
	return operand{}
}

/* member_expression
   : (primary_expression | function_expression | 'new' LT!* member_expression
      (LT!* '(' LT!* arguments? LT!* ')')) (LT!* member_expression_suffix)*
   ; */
func (p *parser) parseMemberExpression(thisArg, propGl *operand) operand {
	var expr operand
	if p.tokenIs(lexer.FUNCTION) {
		expr = p.parseFunctionExpression()
	} else if p.tokenIs(lexer.NEW) {
		p.skipNewlines()
		expr = p.parseMemberExpression(thisArg, propGl)

		p.skipNewlines()
		if p.tokenIs(lexer.LPAREN) {
			expr = p.parseArgumentList(vargConstructExpr, expr, nil)
		} else {
			p.lex.SaveToken(p.tok)
			p.d.dumpVargHeaderForRewrite(vargConstructExpr, expr)
			expr = p.d.rewriteVargHeaderSetArgsCount(0)
		}
	} else {
		expr = p.parsePrimaryExpression()
	}

	p.skipNewlines()
	for p.tokenIs(lexer.LBRACKET) || p.tokenIs(lexer.DOT) {
		prop := emptyOperand()

		if p.tokenIs(lexer.LBRACKET) {
			p.skipNewlines()
			prop = p.parseExpression(true, evalRetStoreNotDump)
			p.nextTokenMustBe(lexer.RBRACKET)
		} else {
			p.skipNewlines()
			switch {
			case p.tokenIs(lexer.NAME):
				prop = p.d.dumpStringAssignmentRes(p.tok.Lit)
			case p.tok.IsKeyword() || p.tokenIs(lexer.RESERVED):
				prop = p.d.dumpStringAssignmentRes(p.lits.FindOrCreate(p.tok.Text))
			case p.tokenIs(lexer.BOOL) || p.tokenIs(lexer.NULL):
				prop = p.d.dumpStringAssignmentRes(p.lits.FindOrCreate(p.tok.Text))
			default:
				raiseSyntax(p.pos(), "Expected identifier")
			}
		}
		p.skipNewlines()

		if thisArg != nil {
			*thisArg = expr
		}
		if propGl != nil {
			*propGl = prop
		}
		expr = p.d.dumpPropGetterRes(expr, prop)
	}

	p.lex.SaveToken(p.tok)
	return expr
}

/* call_expression
   : member_expression LT!* arguments (LT!* call_expression_suffix)*
   ; */
func (p *parser) parseCallExpression(thisArgGl, propGl *operand) operand {
	thisArg := emptyOperand()
	expr := p.parseMemberExpression(&thisArg, propGl)
	var prop operand

	p.skipNewlines()
	if !p.tokenIs(lexer.LPAREN) {
		p.lex.SaveToken(p.tok)
		if thisArgGl != nil {
			*thisArgGl = thisArg
		}
		return expr
	}

	expr = p.parseArgumentList(vargCallExpr, expr, &thisArg)
	thisArg = emptyOperand()

	p.skipNewlines()
	for p.tokenIs(lexer.LPAREN) || p.tokenIs(lexer.LBRACKET) || p.tokenIs(lexer.DOT) {
		if p.tokenIs(lexer.LPAREN) {
			expr = p.parseArgumentList(vargCallExpr, expr, &thisArg)
			p.skipNewlines()
		} else {
			thisArg = expr
			if p.tokenIs(lexer.LBRACKET) {
				p.skipNewlines()
				prop = p.parseExpression(true, evalRetStoreNotDump)
				p.nextTokenMustBe(lexer.RBRACKET)
			} else {
				p.tokenAfterNewlinesMustBe(lexer.NAME)
				prop = p.d.dumpStringAssignmentRes(p.tok.Lit)
			}
			expr = p.d.dumpPropGetterRes(expr, prop)
			p.skipNewlines()
		}
	}
	p.lex.SaveToken(p.tok)
	if thisArgGl != nil {
		*thisArgGl = thisArg
	}
	if propGl != nil {
		*propGl = prop
	}
	return expr
}

func (p *parser) parseLeftHandSideExpression(thisArg, prop *operand) operand {
	return p.parseCallExpression(thisArg, prop)
}

/* postfix_expression
   : left_hand_side_expression ('++' | '--')?
   ; */
func (p *parser) parsePostfixExpression(outThisArg, outProp *operand) operand {
	thisArg, prop := emptyOperand(), emptyOperand()
	expr := p.parseLeftHandSideExpression(&thisArg, &prop)

	if p.lex.PrevToken().Type == lexer.NEWLINE {
		return expr
	}

	p.skipToken()
	if p.tokenIs(lexer.INC) {
		p.ee.checkForEvalAndArguments(expr, p.isStrictMode(), p.pos())
		res := p.d.dumpPostIncrementRes(expr)
		if !thisArg.isEmpty() && !prop.isEmpty() {
			p.d.dumpPropSetter(thisArg, prop, expr)
		}
		expr = res
	} else if p.tokenIs(lexer.DEC) {
		p.ee.checkForEvalAndArguments(expr, p.isStrictMode(), p.pos())
		res := p.d.dumpPostDecrementRes(expr)
		if !thisArg.isEmpty() && !prop.isEmpty() {
			p.d.dumpPropSetter(thisArg, prop, expr)
		}
		expr = res
	} else {
		p.lex.SaveToken(p.tok)
	}

	if outThisArg != nil {
		*outThisArg = thisArg
	}
	if outProp != nil {
		*outProp = prop
	}
	return expr
}

/* unary_expression
   : postfix_expression
   | ('delete' | 'void' | 'typeof' | '++' | '--' | '+' | '-' | '~' | '!') unary_expression
   ; */
func (p *parser) parseUnaryExpression(thisArgGl, propGl *operand) operand {
	var expr operand
	thisArg, prop := emptyOperand(), emptyOperand()

	switch p.tok.Type {
	case lexer.INC:
		p.skipNewlines()
		expr = p.parseUnaryExpression(&thisArg, &prop)
		p.ee.checkForEvalAndArguments(expr, p.isStrictMode(), p.pos())
		expr = p.d.dumpPreIncrementRes(expr, p.pos())
		if !thisArg.isEmpty() && !prop.isEmpty() {
			p.d.dumpPropSetter(thisArg, prop, expr)
		}
	case lexer.DEC:
		p.skipNewlines()
		expr = p.parseUnaryExpression(&thisArg, &prop)
		p.ee.checkForEvalAndArguments(expr, p.isStrictMode(), p.pos())
		expr = p.d.dumpPreDecrementRes(expr, p.pos())
		if !thisArg.isEmpty() && !prop.isEmpty() {
			p.d.dumpPropSetter(thisArg, prop, expr)
		}
	case lexer.PLUS:
		p.skipNewlines()
		expr = p.parseUnaryExpression(nil, nil)
		expr = p.d.dumpUnaryPlusRes(expr)
	case lexer.MINUS:
		p.skipNewlines()
		expr = p.parseUnaryExpression(nil, nil)
		expr = p.d.dumpUnaryMinusRes(expr)
	case lexer.COMPL:
		p.skipNewlines()
		expr = p.parseUnaryExpression(nil, nil)
		expr = p.d.dumpBitwiseNotRes(expr)
	case lexer.NOT:
		p.skipNewlines()
		expr = p.parseUnaryExpression(nil, nil)
		expr = p.d.dumpLogicalNotRes(expr)
	case lexer.DELETE:
		p.curScope().containsDelete = true
		p.skipNewlines()
		expr = p.parseUnaryExpression(nil, nil)
		expr = p.d.dumpDeleteRes(expr, p.isStrictMode(), p.pos(), &p.ee)
	case lexer.VOID:
		p.skipNewlines()
		expr = p.parseUnaryExpression(nil, nil)
		expr = p.d.dumpVariableAssignmentRes(expr)
		p.d.dumpUndefinedAssignment(expr)
	case lexer.TYPEOF:
		p.skipNewlines()
		expr = p.parseUnaryExpression(nil, nil)
		expr = p.d.dumpTypeofRes(expr)
	default:
		expr = p.parsePostfixExpression(&thisArg, &prop)
	}

	if thisArgGl != nil {
		*thisArgGl = thisArg
	}
	if propGl != nil {
		*propGl = prop
	}
	return expr
}

// dumpAssignmentOfLhsIfLiteral materializes a literal operand into a
// temporary so subsequent operations have a register to work on.
func (p *parser) dumpAssignmentOfLhsIfLiteral(lhs operand) operand {
	if lhs.isLiteral() {
		return p.d.dumpVariableAssignmentRes(lhs)
	}
	return lhs
}

// binaryRule describes one left-associative binary production level.
type binaryRule struct {
	tt lexer.TokenType
	op bytecode.Opcode
}

// parseBinaryLevel parses `next (op next)*` for the rules of one precedence
// level.
func (p *parser) parseBinaryLevel(rules []binaryRule, next func() operand) operand {
	expr := next()
	p.skipNewlines()
	for {
		matched := false
		for _, r := range rules {
			if p.tokenIs(r.tt) {
				expr = p.dumpAssignmentOfLhsIfLiteral(expr)
				p.skipNewlines()
				expr = p.d.dumpTripleAddressRes(r.op, expr, next())
				matched = true
				break
			}
		}
		if !matched {
			p.lex.SaveToken(p.tok)
			return expr
		}
		p.skipNewlines()
	}
}

/* multiplicative_expression
   : unary_expression (LT!* ('*' | '/' | '%') LT!* unary_expression)*
   ; */
func (p *parser) parseMultiplicativeExpression() operand {
	return p.parseBinaryLevel([]binaryRule{
		{lexer.MULT, bytecode.OpMultiplication},
		{lexer.DIV, bytecode.OpDivision},
		{lexer.MOD, bytecode.OpRemainder},
	}, func() operand { return p.parseUnaryExpression(nil, nil) })
}

/* additive_expression
   : multiplicative_expression (LT!* ('+' | '-') LT!* multiplicative_expression)*
   ; */
func (p *parser) parseAdditiveExpression() operand {
	return p.parseBinaryLevel([]binaryRule{
		{lexer.PLUS, bytecode.OpAddition},
		{lexer.MINUS, bytecode.OpSubstraction},
	}, p.parseMultiplicativeExpression)
}

/* shift_expression
   : additive_expression (LT!* ('<<' | '>>' | '>>>') LT!* additive_expression)*
   ; */
func (p *parser) parseShiftExpression() operand {
	return p.parseBinaryLevel([]binaryRule{
		{lexer.LSHIFT, bytecode.OpShiftLeft},
		{lexer.RSHIFT, bytecode.OpShiftRight},
		{lexer.URSHIFT, bytecode.OpShiftUright},
	}, p.parseAdditiveExpression)
}

/* relational_expression
   : shift_expression (LT!* ('<' | '>' | '<=' | '>=' | 'instanceof' | 'in') LT!* shift_expression)*
   ; */
func (p *parser) parseRelationalExpression(inAllowed bool) operand {
	rules := []binaryRule{
		{lexer.LT, bytecode.OpLessThan},
		{lexer.GT, bytecode.OpGreaterThan},
		{lexer.LE, bytecode.OpLessOrEqualThan},
		{lexer.GE, bytecode.OpGreaterOrEqualThan},
		{lexer.INSTANCEOF, bytecode.OpInstanceof},
	}
	if inAllowed {
		rules = append(rules, binaryRule{lexer.IN, bytecode.OpIn})
	}
	return p.parseBinaryLevel(rules, p.parseShiftExpression)
}

/* equality_expression
   : relational_expression (LT!* ('==' | '!=' | '===' | '!==') LT!* relational_expression)*
   ; */
func (p *parser) parseEqualityExpression(inAllowed bool) operand {
	return p.parseBinaryLevel([]binaryRule{
		{lexer.EQ, bytecode.OpEqualValue},
		{lexer.NE, bytecode.OpNotEqualValue},
		{lexer.STRICTEQ, bytecode.OpEqualValueType},
		{lexer.STRICTNE, bytecode.OpNotEqualValueType},
	}, func() operand { return p.parseRelationalExpression(inAllowed) })
}

func (p *parser) parseBitwiseAndExpression(inAllowed bool) operand {
	return p.parseBinaryLevel([]binaryRule{{lexer.AND, bytecode.OpBitAnd}},
		func() operand { return p.parseEqualityExpression(inAllowed) })
}

func (p *parser) parseBitwiseXorExpression(inAllowed bool) operand {
	return p.parseBinaryLevel([]binaryRule{{lexer.XOR, bytecode.OpBitXor}},
		func() operand { return p.parseBitwiseAndExpression(inAllowed) })
}

func (p *parser) parseBitwiseOrExpression(inAllowed bool) operand {
	return p.parseBinaryLevel([]binaryRule{{lexer.OR, bytecode.OpBitOr}},
		func() operand { return p.parseBitwiseXorExpression(inAllowed) })
}

/* logical_and_expression
   : bitwise_or_expression (LT!* '&&' LT!* bitwise_or_expression)*
   ; */
func (p *parser) parseLogicalAndExpression(inAllowed bool) operand {
	expr := p.parseBitwiseOrExpression(inAllowed)
	p.skipNewlines()
	if !p.tokenIs(lexer.LAND) {
		p.lex.SaveToken(p.tok)
		return expr
	}

	tmp := p.d.dumpVariableAssignmentRes(expr)
	p.d.startDumpingLogicalAndChecks()
	p.d.dumpLogicalAndCheckForRewrite(tmp)

	for p.tokenIs(lexer.LAND) {
		p.skipNewlines()
		expr = p.parseBitwiseOrExpression(inAllowed)
		p.d.dumpVariableAssignment(tmp, expr)
		p.skipNewlines()
		if p.tokenIs(lexer.LAND) {
			p.d.dumpLogicalAndCheckForRewrite(tmp)
		}
	}
	p.lex.SaveToken(p.tok)
	p.d.rewriteLogicalAndChecks()
	return tmp
}

/* logical_or_expression
   : logical_and_expression (LT!* '||' LT!* logical_and_expression)*
   ; */
func (p *parser) parseLogicalOrExpression(inAllowed bool) operand {
	expr := p.parseLogicalAndExpression(inAllowed)
	p.skipNewlines()
	if !p.tokenIs(lexer.LOR) {
		p.lex.SaveToken(p.tok)
		return expr
	}

	tmp := p.d.dumpVariableAssignmentRes(expr)
	p.d.startDumpingLogicalOrChecks()
	p.d.dumpLogicalOrCheckForRewrite(tmp)

	for p.tokenIs(lexer.LOR) {
		p.skipNewlines()
		expr = p.parseLogicalAndExpression(inAllowed)
		p.d.dumpVariableAssignment(tmp, expr)
		p.skipNewlines()
		if p.tokenIs(lexer.LOR) {
			p.d.dumpLogicalOrCheckForRewrite(tmp)
		}
	}
	p.lex.SaveToken(p.tok)
	p.d.rewriteLogicalOrChecks()
	return tmp
}

/* conditional_expression
   : logical_or_expression (LT!* '?' LT!* assignment_expression LT!* ':' LT!* assignment_expression)?
   ; */
func (p *parser) parseConditionalExpression(inAllowed bool, isConditional *bool) operand {
	expr := p.parseLogicalOrExpression(inAllowed)
	p.skipNewlines()
	if !p.tokenIs(lexer.QUESTION) {
		p.lex.SaveToken(p.tok)
		return expr
	}

	p.d.dumpConditionalCheckForRewrite(expr)
	p.skipNewlines()
	expr = p.parseAssignmentExpression(inAllowed)
	tmp := p.d.dumpVariableAssignmentRes(expr)
	p.tokenAfterNewlinesMustBe(lexer.COLON)
	p.d.dumpJumpToEndForRewrite()
	p.d.rewriteConditionalCheck()
	p.skipNewlines()
	expr = p.parseAssignmentExpression(inAllowed)
	p.d.dumpVariableAssignment(tmp, expr)
	p.d.rewriteJumpToEnd()
	if isConditional != nil {
		*isConditional = true
	}
	return tmp
}

// assignmentOps maps compound assignment tokens to the three-address opcode
// applied between the target and the right-hand side.
var assignmentOps = map[lexer.TokenType]bytecode.Opcode{
	lexer.MULTASSIGN:    bytecode.OpMultiplication,
	lexer.DIVASSIGN:     bytecode.OpDivision,
	lexer.MODASSIGN:     bytecode.OpRemainder,
	lexer.PLUSASSIGN:    bytecode.OpAddition,
	lexer.MINUSASSIGN:   bytecode.OpSubstraction,
	lexer.LSHIFTASSIGN:  bytecode.OpShiftLeft,
	lexer.RSHIFTASSIGN:  bytecode.OpShiftRight,
	lexer.URSHIFTASSIGN: bytecode.OpShiftUright,
	lexer.ANDASSIGN:     bytecode.OpBitAnd,
	lexer.XORASSIGN:     bytecode.OpBitXor,
	lexer.ORASSIGN:      bytecode.OpBitOr,
}

/* assignment_expression
   : conditional_expression
   | left_hand_side_expression LT!* assignment_operator LT!* assignment_expression
   ; */
func (p *parser) parseAssignmentExpression(inAllowed bool) operand {
	isConditional := false
	exprPos := p.pos()
	expr := p.parseConditionalExpression(inAllowed, &isConditional)
	if isConditional {
		return expr
	}

	p.skipNewlines()

	tt := p.tok.Type
	op, isCompound := assignmentOps[tt]
	if tt != lexer.ASSIGN && !isCompound {
		p.lex.SaveToken(p.tok)
		return expr
	}

	p.ee.checkForEvalAndArguments(expr, p.isStrictMode(), p.pos())
	p.skipNewlines()
	p.d.startDumpingAssignmentExpression(expr, exprPos)
	assignExpr := p.parseAssignmentExpression(inAllowed)

	if tt == lexer.ASSIGN {
		return p.d.dumpPropSetterOrVariableAssignmentRes(expr, assignExpr)
	}
	return p.d.dumpPropSetterOrTripleAddressRes(op, expr, assignExpr)
}

/* expression
   : assignment_expression (LT!* ',' LT!* assignment_expression)*
   ; */
func (p *parser) parseExpression(inAllowed bool, dumpEvalRet evalRetStore) operand {
	expr := p.parseAssignmentExpression(inAllowed)

	for {
		p.skipNewlines()
		if p.tokenIs(lexer.COMMA) {
			p.dumpAssignmentOfLhsIfLiteral(expr)
			p.skipNewlines()
			expr = p.parseAssignmentExpression(inAllowed)
		} else {
			p.lex.SaveToken(p.tok)
			break
		}
	}

	if p.insideEval && dumpEvalRet == evalRetStoreDump && !p.insideFunction {
		p.d.dumpVariableAssignment(evalRetOperand(), expr)
	}
	return expr
}

/* variable_declaration
   : Identifier LT!* initialiser?
   ; */
func (p *parser) parseVariableDeclaration() operand {
	p.currentTokenMustBe(lexer.NAME)

	id := p.tok.Lit
	name := literalOperand(id)

	if !p.curScope().variableExists(id) {
		p.ee.checkForEvalAndArguments(name, p.isStrictMode(), p.pos())
		p.curScope().addVariable(id, false)
	}

	p.skipNewlines()
	if p.tokenIs(lexer.ASSIGN) {
		p.skipNewlines()
		expr := p.parseAssignmentExpression(true)
		if !p.d.tryMergeRedundantAssignment(name, expr) {
			p.d.dumpVariableAssignment(name, expr)
		}
	} else {
		p.lex.SaveToken(p.tok)
	}
	return name
}

/* variable_declaration_list
   : variable_declaration (LT!* ',' LT!* variable_declaration)*
   ; */
func (p *parser) parseVariableDeclarationList() {
	for {
		p.skipNewlines()
		p.parseVariableDeclaration()
		p.skipNewlines()
		if !p.tokenIs(lexer.COMMA) {
			p.lex.SaveToken(p.tok)
			return
		}
	}
}

// parseForStatement compiles a plain three-clause for statement. The
// generated layout evaluates the condition after the body:
//
//	Initializer
//	jmp -> ConditionCheck
//	NextIteration: Body
//	ContinueTarget: Increment
//	ConditionCheck: Condition, is_true_jmp_up -> NextIteration
func (p *parser) parseForStatement(outermostStmtLabel *label, forBodyPos int) {
	p.currentTokenMustBe(lexer.LPAREN)
	p.skipNewlines()

	// Initializer
	if p.tokenIs(lexer.VAR) {
		p.parseVariableDeclarationList()
		p.skipToken()
	} else if !p.tokenIs(lexer.SEMICOLON) {
		p.parseExpression(false, evalRetStoreNotDump)
		p.skipToken()
	}

	p.d.dumpJumpToEndForRewrite()
	p.d.setNextIterationTarget()

	p.currentTokenMustBe(lexer.SEMICOLON)
	p.skipToken()

	conditionPos := p.tok.Pos

	if !p.findNextTokenBeforePos(lexer.SEMICOLON, forBodyPos, true) {
		raiseSyntax(p.pos(), "Invalid for statement")
	}
	p.currentTokenMustBe(lexer.SEMICOLON)
	p.skipToken()

	incrementPos := p.tok.Pos

	// Body
	p.seekTo(forBodyPos)
	p.parseStatement(nil)

	loopEndPos := p.tok.Pos

	if outermostStmtLabel != nil {
		p.setupContinueTarget(outermostStmtLabel)
	}

	// Increment
	p.seekTo(incrementPos)
	if !p.tokenIs(lexer.RPAREN) {
		p.parseExpression(true, evalRetStoreNotDump)
	}
	p.currentTokenMustBe(lexer.RPAREN)

	p.d.rewriteJumpToEnd()

	// Condition
	p.seekTo(conditionPos)
	if p.tokenIs(lexer.SEMICOLON) {
		p.d.dumpContinueIterationsCheck(emptyOperand())
	} else {
		cond := p.parseExpression(true, evalRetStoreNotDump)
		p.d.dumpContinueIterationsCheck(cond)
	}

	p.seekTo(loopEndPos)
	if !p.tokenIs(lexer.RBRACE) {
		p.lex.SaveToken(p.tok)
	}
}

// parseForInStatementIterator parses the iterator clause of a for-in
// statement, returning whether it is a member expression (base + property
// name) rather than a plain identifier.
func (p *parser) parseForInStatementIterator(base, identifier *operand) bool {
	if p.tokenIs(lexer.VAR) {
		p.skipNewlines()
		*base = emptyOperand()
		*identifier = p.parseVariableDeclaration()
		return false
	}

	var b, ident operand
	i := p.parseLeftHandSideExpression(&b, &ident)

	if b.isEmpty() {
		*base = emptyOperand()
		*identifier = i
		return false
	}
	*base = b
	*identifier = ident
	return true
}

// parseForInStatement compiles a for-in statement:
//
//	tmp <- Collection
//	for_in tmp, -> end
//	  iterator <- for-in property-name register
//	  Body
//	ContinueTarget: meta end_for_in
func (p *parser) parseForInStatement(outermostStmtLabel *label, forBodyPos int) {
	p.labels.raiseNestedJumpableBorder()

	p.currentTokenMustBe(lexer.LPAREN)
	p.skipNewlines()

	iteratorPos := p.tok.Pos

	if !p.findNextTokenBeforePos(lexer.IN, forBodyPos, true) {
		raiseSyntax(p.pos(), "Invalid for statement")
	}

	p.currentTokenMustBe(lexer.IN)
	p.skipNewlines()

	// Collection
	collection := p.parseExpression(true, evalRetStoreNotDump)
	p.currentTokenMustBe(lexer.RPAREN)
	p.skipToken()

	forInPos := p.d.dumpForInForRewrite(collection)

	// Assign the current property name to the iterator.
	p.seekTo(iteratorPos)

	var iterBase, iterIdent operand
	forInSpecialReg := forInPropNameOperand()

	if p.parseForInStatementIterator(&iterBase, &iterIdent) {
		p.d.dumpPropSetter(iterBase, iterIdent, forInSpecialReg)
	} else {
		p.d.dumpVariableAssignment(iterIdent, forInSpecialReg)
	}

	// Body
	p.seekTo(forBodyPos)
	p.parseStatement(nil)

	loopEndPos := p.tok.Pos

	if outermostStmtLabel != nil {
		p.setupContinueTarget(outermostStmtLabel)
	}

	p.d.rewriteForIn(forInPos)
	p.d.dumpForInEnd()

	p.seekTo(loopEndPos)
	if !p.tokenIs(lexer.RBRACE) {
		p.lex.SaveToken(p.tok)
	}

	p.labels.removeNestedJumpableBorder()
}

// parseForOrForInStatement disambiguates plain for from for-in by scanning
// for a `;` between the opening paren and the body statement.
func (p *parser) parseForOrForInStatement(outermostStmtLabel *label) {
	p.currentTokenMustBe(lexer.FOR)
	p.tokenAfterNewlinesMustBe(lexer.LPAREN)

	forOpenParenPos := p.tok.Pos

	p.skipBraces(lexer.LPAREN)
	p.skipNewlines()

	forBodyPos := p.tok.Pos

	p.seekTo(forOpenParenPos)

	isPlainFor := p.findNextTokenBeforePos(lexer.SEMICOLON, forBodyPos, true)

	p.seekTo(forOpenParenPos)

	if isPlainFor {
		p.parseForStatement(outermostStmtLabel, forBodyPos)
	} else {
		p.parseForInStatement(outermostStmtLabel, forBodyPos)
	}
}

func (p *parser) parseExpressionInsideParens() operand {
	p.tokenAfterNewlinesMustBe(lexer.LPAREN)
	p.skipNewlines()
	res := p.parseExpression(true, evalRetStoreNotDump)
	p.tokenAfterNewlinesMustBe(lexer.RPAREN)
	return res
}

/* statement_list
   : statement (LT!* statement)*
   ; */
func (p *parser) parseStatementList() {
	for {
		p.parseStatement(nil)

		p.skipNewlines()
		for p.tokenIs(lexer.SEMICOLON) {
			p.skipNewlines()
		}
		if p.tokenIs(lexer.RBRACE) {
			p.lex.SaveToken(p.tok)
			return
		}
		if p.tokenIs(lexer.CASE) || p.tokenIs(lexer.DEFAULT) {
			p.lex.SaveToken(p.tok)
			return
		}
	}
}

/* if_statement
   : 'if' LT!* '(' LT!* expression LT!* ')' LT!* statement (LT!* 'else' LT!* statement)?
   ; */
func (p *parser) parseIfStatement() {
	p.currentTokenMustBe(lexer.IF)

	cond := p.parseExpressionInsideParens()
	p.d.dumpConditionalCheckForRewrite(cond)

	p.skipNewlines()
	p.parseStatement(nil)

	p.skipNewlines()
	if p.tokenIs(lexer.ELSE) {
		p.d.dumpJumpToEndForRewrite()
		p.d.rewriteConditionalCheck()

		p.skipNewlines()
		p.parseStatement(nil)

		p.d.rewriteJumpToEnd()
	} else {
		p.lex.SaveToken(p.tok)
		p.d.rewriteConditionalCheck()
	}
}

/* do_while_statement
   : 'do' LT!* statement LT!* 'while' LT!* '(' expression ')' (LT | ';')!
   ; */
func (p *parser) parseDoWhileStatement(outermostStmtLabel *label) {
	p.currentTokenMustBe(lexer.DO)

	p.d.setNextIterationTarget()

	p.skipNewlines()
	p.parseStatement(nil)

	p.setupContinueTarget(outermostStmtLabel)

	p.tokenAfterNewlinesMustBe(lexer.WHILE)
	cond := p.parseExpressionInsideParens()
	p.d.dumpContinueIterationsCheck(cond)
}

/* while_statement
   : 'while' LT!* '(' LT!* expression LT!* ')' LT!* statement
   ; */
func (p *parser) parseWhileStatement(outermostStmtLabel *label) {
	p.currentTokenMustBe(lexer.WHILE)

	p.tokenAfterNewlinesMustBe(lexer.LPAREN)
	condPos := p.tok.Pos
	p.skipBraces(lexer.LPAREN)

	p.d.dumpJumpToEndForRewrite()
	p.d.setNextIterationTarget()

	p.skipNewlines()
	p.parseStatement(nil)

	p.setupContinueTarget(outermostStmtLabel)

	p.d.rewriteJumpToEnd()

	endPos := p.tok.Pos
	cond := p.parseExpressionInsideParensAt(condPos)
	p.d.dumpContinueIterationsCheck(cond)

	p.seekTo(endPos)
}

// parseExpressionInsideParensAt re-reads a parenthesized expression whose
// opening paren sits at pos.
func (p *parser) parseExpressionInsideParensAt(pos int) operand {
	p.seekTo(pos)
	p.currentTokenMustBe(lexer.LPAREN)
	p.skipNewlines()
	res := p.parseExpression(true, evalRetStoreNotDump)
	p.tokenAfterNewlinesMustBe(lexer.RPAREN)
	return res
}

/* with_statement
   : 'with' LT!* '(' LT!* expression LT!* ')' LT!* statement
   ; */
func (p *parser) parseWithStatement() {
	p.currentTokenMustBe(lexer.WITH)
	if p.isStrictMode() {
		raiseSyntax(p.pos(), "'with' expression is not allowed in strict mode.")
	}
	expr := p.parseExpressionInsideParens()

	p.curScope().containsWith = true

	p.labels.raiseNestedJumpableBorder()

	withBeginPos := p.d.dumpWithForRewrite(expr)
	p.skipNewlines()
	p.parseStatement(nil)
	p.d.rewriteWith(withBeginPos)
	p.d.dumpWithEnd()

	p.labels.removeNestedJumpableBorder()
}

func (p *parser) skipCaseClauseBody() {
	for !p.tokenIs(lexer.CASE) && !p.tokenIs(lexer.DEFAULT) && !p.tokenIs(lexer.RBRACE) {
		if p.tokenIs(lexer.LBRACE) {
			p.skipBraces(lexer.LBRACE)
		}
		p.skipNewlines()
	}
}

/* switch_statement
   : 'switch' LT!* '(' LT!* expression LT!* ')' LT!* '{' LT!* case_block LT!* '}'
   ;

   The clauses are processed in two passes: the first dumps the chain of
   case-check jumps while remembering each body's source position, the second
   seeks back to each body, patches its jump and parses it. */
func (p *parser) parseSwitchStatement() {
	p.currentTokenMustBe(lexer.SWITCH)

	switchExpr := p.dumpAssignmentOfLhsIfLiteral(p.parseExpressionInsideParens())
	p.tokenAfterNewlinesMustBe(lexer.LBRACE)

	p.d.startDumpingCaseClauses()
	startPos := p.tok.Pos
	wasDefault := false
	defaultBodyIndex := 0
	var bodyPositions []int

	// First pass: the table of jumps.
	p.skipNewlines()
	for p.tokenIs(lexer.CASE) || p.tokenIs(lexer.DEFAULT) {
		if p.tokenIs(lexer.CASE) {
			p.skipNewlines()
			caseExpr := p.parseExpression(true, evalRetStoreNotDump)
			p.nextTokenMustBe(lexer.COLON)
			p.d.dumpCaseClauseCheckForRewrite(switchExpr, caseExpr)
			p.skipNewlines()
			bodyPositions = append(bodyPositions, p.tok.Pos)
			p.skipCaseClauseBody()
		} else {
			if wasDefault {
				raiseSyntax(p.pos(), "Duplication of 'default' clause")
			}
			wasDefault = true
			p.tokenAfterNewlinesMustBe(lexer.COLON)
			p.skipNewlines()
			defaultBodyIndex = len(bodyPositions)
			bodyPositions = append(bodyPositions, p.tok.Pos)
			p.skipCaseClauseBody()
		}
	}
	p.currentTokenMustBe(lexer.RBRACE)

	p.d.dumpDefaultClauseCheckForRewrite()

	p.seekTo(startPos)

	lbl := p.labels.push(1<<labelUnnamedBreaks, lit.None)

	// Second pass: the bodies.
	for i, bodyPos := range bodyPositions {
		p.seekTo(bodyPos)
		if wasDefault && defaultBodyIndex == i {
			p.d.rewriteDefaultClause()
			if p.tokenIs(lexer.CASE) {
				continue
			}
		} else {
			p.d.rewriteCaseClause()
			if p.tokenIs(lexer.CASE) || p.tokenIs(lexer.DEFAULT) {
				continue
			}
		}
		p.parseStatementList()
		p.skipNewlines()
	}

	if !wasDefault {
		p.d.rewriteDefaultClause()
	}

	p.currentTokenMustBe(lexer.RBRACE)

	p.rewriteJumpsAndPop(lbl)
	p.d.finishDumpingCaseClauses()
}

/* catch_clause
   : 'catch' LT!* '(' LT!* Identifier LT!* ')' LT!* '{' LT!* statement_list LT!* '}'
   ; */
func (p *parser) parseCatchClause() {
	p.currentTokenMustBe(lexer.CATCH)

	p.tokenAfterNewlinesMustBe(lexer.LPAREN)
	p.tokenAfterNewlinesMustBe(lexer.NAME)
	exception := literalOperand(p.tok.Lit)
	p.ee.checkForEvalAndArguments(exception, p.isStrictMode(), p.pos())
	p.tokenAfterNewlinesMustBe(lexer.RPAREN)

	p.d.dumpCatchForRewrite(exception)

	p.tokenAfterNewlinesMustBe(lexer.LBRACE)
	p.skipNewlines()
	p.parseStatementList()
	p.nextTokenMustBe(lexer.RBRACE)

	p.d.rewriteCatch()
}

/* finally_clause
   : 'finally' LT!* '{' LT!* statement_list LT!* '}'
   ; */
func (p *parser) parseFinallyClause() {
	p.currentTokenMustBe(lexer.FINALLY)

	p.d.dumpFinallyForRewrite()

	p.tokenAfterNewlinesMustBe(lexer.LBRACE)
	p.skipNewlines()
	p.parseStatementList()
	p.nextTokenMustBe(lexer.RBRACE)

	p.d.rewriteFinally()
}

/* try_statement
   : 'try' LT!* '{' LT!* statement_list LT!* '}' LT!* (finally_clause | catch_clause (LT!* finally_clause)?)
   ; */
func (p *parser) parseTryStatement() {
	p.currentTokenMustBe(lexer.TRY)

	p.curScope().containsTry = true

	p.labels.raiseNestedJumpableBorder()

	p.d.dumpTryForRewrite()

	p.tokenAfterNewlinesMustBe(lexer.LBRACE)
	p.skipNewlines()
	p.parseStatementList()
	p.nextTokenMustBe(lexer.RBRACE)

	p.d.rewriteTry()

	p.skipNewlines()
	if p.tokenIs(lexer.CATCH) {
		p.parseCatchClause()

		p.skipNewlines()
		if p.tokenIs(lexer.FINALLY) {
			p.parseFinallyClause()
		} else {
			p.lex.SaveToken(p.tok)
		}
	} else if p.tokenIs(lexer.FINALLY) {
		p.parseFinallyClause()
	} else {
		raiseSyntax(p.pos(), "Expected either 'catch' or 'finally' token")
	}

	p.d.dumpEndTryCatchFinally()

	p.labels.removeNestedJumpableBorder()
}

// insertSemicolon performs automatic semicolon insertion: a statement may be
// terminated by an explicit semicolon, a line terminator, a closing brace or
// the end of input.
func (p *parser) insertSemicolon() {
	p.skipToken()

	isNewLine := p.tokenIs(lexer.NEWLINE) || p.lex.PrevToken().Type == lexer.NEWLINE
	isCloseBraceOrEOF := p.tokenIs(lexer.RBRACE) || p.tokenIs(lexer.EOF)

	if isNewLine || isCloseBraceOrEOF {
		p.lex.SaveToken(p.tok)
	} else if !p.tokenIs(lexer.SEMICOLON) && !p.tokenIs(lexer.EOF) {
		raiseSyntax(p.pos(), "Expected either ';' or newline token")
	}
}

// setupContinueTarget resolves pending continue jumps to the current
// position, for every label between the innermost one and the outermost
// label of the iteration statement (named labels of a loop share its
// continue target).
func (p *parser) setupContinueTarget(outermost *label) {
	target := p.d.curPos()
	for i := len(p.labels.labels) - 1; i >= 0; i-- {
		l := p.labels.labels[i]
		for _, pos := range l.takeContinues() {
			p.d.rewriteSimpleOrNestedJump(pos, target)
		}
		if l == outermost {
			break
		}
	}
}

// rewriteJumpsAndPop resolves every remaining pending jump of the innermost
// label to the current position and pops it.
func (p *parser) rewriteJumpsAndPop(lbl *label) {
	target := p.d.curPos()
	for _, pos := range lbl.takeBreaks() {
		p.d.rewriteSimpleOrNestedJump(pos, target)
	}
	for _, pos := range lbl.takeContinues() {
		p.d.rewriteSimpleOrNestedJump(pos, target)
	}
	p.labels.pop()
}

/* iteration_statement
   : do_while_statement | while_statement | for_statement | for_in_statement
   ; */
func (p *parser) parseIterationalStatement(outermostNamedStmtLabel *label) {
	lbl := p.labels.push(1<<labelUnnamedBreaks|1<<labelUnnamedContinues, lit.None)

	outermostStmtLabel := outermostNamedStmtLabel
	if outermostStmtLabel == nil {
		outermostStmtLabel = lbl
	}

	switch p.tok.Type {
	case lexer.DO:
		p.parseDoWhileStatement(outermostStmtLabel)
	case lexer.WHILE:
		p.parseWhileStatement(outermostStmtLabel)
	default:
		p.parseForOrForInStatement(outermostStmtLabel)
	}

	p.rewriteJumpsAndPop(lbl)
}

// parseBreakOrContinue handles break/continue statements: the innermost
// matching label is located and a pending jump recorded against it, using
// jmp_break_continue when a try/with/for-in border lies in between.
func (p *parser) parseBreakOrContinue() {
	isBreak := p.tokenIs(lexer.BREAK)

	p.skipToken()

	var lbl *label
	var isSimplyJumpable bool
	if p.tokenIs(lexer.NAME) {
		lbl, isSimplyJumpable = p.labels.find(labelNamed, p.tok.Lit)
		if lbl == nil {
			raiseSyntax(p.pos(), "Label not found")
		}
	} else if isBreak {
		lbl, isSimplyJumpable = p.labels.find(labelUnnamedBreaks, lit.None)
		if lbl == nil {
			raiseSyntax(p.pos(), "No corresponding statement for the break")
		}
	} else {
		lbl, isSimplyJumpable = p.labels.find(labelUnnamedContinues, lit.None)
		if lbl == nil {
			raiseSyntax(p.pos(), "No corresponding statement for the continue")
		}
	}

	if p.tokenIs(lexer.RBRACE) {
		p.lex.SaveToken(p.tok)
	}

	pos := p.d.dumpSimpleOrNestedJumpForRewrite(isSimplyJumpable)
	lbl.addJump(pos, isBreak)
}

/* statement
   : statement_block | variable_statement | empty_statement | if_statement
   | iteration_statement | continue_statement | break_statement
   | return_statement | with_statement | labelled_statement | switch_statement
   | throw_statement | try_statement | expression_statement
   ; */
func (p *parser) parseStatement(outermostStmtLabel *label) {
	p.d.newStatement()

	switch {
	case p.tokenIs(lexer.RBRACE):
		p.lex.SaveToken(p.tok)
		return

	case p.tokenIs(lexer.LBRACE):
		p.skipNewlines()
		if !p.tokenIs(lexer.RBRACE) {
			p.parseStatementList()
			p.nextTokenMustBe(lexer.RBRACE)
		}
		return

	case p.tokenIs(lexer.VAR):
		p.parseVariableDeclarationList()
		if p.tokenIs(lexer.SEMICOLON) {
			p.skipNewlines()
		} else {
			p.insertSemicolon()
		}
		return

	case p.tokenIs(lexer.FUNCTION):
		p.parseFunctionDeclaration()
		return

	case p.tokenIs(lexer.SEMICOLON):
		return

	case p.tokenIs(lexer.CASE) || p.tokenIs(lexer.DEFAULT):
		return

	case p.tokenIs(lexer.IF):
		p.parseIfStatement()
		return

	case p.tokenIs(lexer.DO) || p.tokenIs(lexer.WHILE) || p.tokenIs(lexer.FOR):
		p.parseIterationalStatement(outermostStmtLabel)
		return

	case p.tokenIs(lexer.CONTINUE) || p.tokenIs(lexer.BREAK):
		p.parseBreakOrContinue()
		return

	case p.tokenIs(lexer.RETURN):
		if !p.insideFunction {
			raiseSyntax(p.pos(), "Return is illegal")
		}

		p.skipToken()
		if !p.tokenIs(lexer.SEMICOLON) && !p.tokenIs(lexer.NEWLINE) && !p.tokenIs(lexer.RBRACE) {
			op := p.parseExpression(true, evalRetStoreNotDump)
			p.d.dumpRetval(op)
			p.insertSemicolon()
			return
		}
		p.d.dumpRet()
		if p.tokenIs(lexer.RBRACE) {
			p.lex.SaveToken(p.tok)
		}
		return

	case p.tokenIs(lexer.WITH):
		p.parseWithStatement()
		return

	case p.tokenIs(lexer.SWITCH):
		p.parseSwitchStatement()
		return

	case p.tokenIs(lexer.THROW):
		p.skipToken()
		op := p.parseExpression(true, evalRetStoreNotDump)
		p.insertSemicolon()
		p.d.dumpThrow(op)
		return

	case p.tokenIs(lexer.TRY):
		p.parseTryStatement()
		return

	case p.tokenIs(lexer.DEBUGGER):
		// a no-op in this engine
		p.insertSemicolon()
		return

	case p.tokenIs(lexer.NAME):
		temp := p.tok
		p.skipNewlines()
		if p.tokenIs(lexer.COLON) {
			p.skipNewlines()

			if existing, _ := p.labels.find(labelNamed, temp.Lit); existing != nil {
				raiseSyntax(p.pos(), "Label is duplicated")
			}

			lbl := p.labels.push(1<<labelNamed, temp.Lit)

			inner := outermostStmtLabel
			if inner == nil {
				inner = lbl
			}
			p.parseStatement(inner)

			p.rewriteJumpsAndPop(lbl)
			return
		}
		p.lex.SaveToken(p.tok)
		p.tok = temp
		expr := p.parseExpression(true, evalRetStoreDump)
		p.dumpAssignmentOfLhsIfLiteral(expr)
		p.insertSemicolon()
		return
	}

	p.parseExpression(true, evalRetStoreDump)
	p.insertSemicolon()
}

/* source_element
   : function_declaration | statement
   ; */
func (p *parser) parseSourceElement() {
	if p.tokenIs(lexer.FUNCTION) {
		p.parseFunctionDeclaration()
	} else {
		p.parseStatement(nil)
	}
}

// checkDirectivePrologueForUseStrict scans the leading string-literal
// statements for an escape-free "use strict" directive, marking the current
// scope and the lexer strict when found, then rewinds.
func (p *parser) checkDirectivePrologueForUseStrict() {
	startPos := p.tok.Pos

	for p.tokenIs(lexer.STRING) {
		if !p.tok.HasEscape && p.lits.IsString(p.tok.Lit, "use strict") {
			p.curScope().strictMode = true
			p.lex.SetStrictMode(true)
			break
		}

		p.skipNewlines()
		if p.tokenIs(lexer.SEMICOLON) {
			p.skipNewlines()
		}
	}

	if startPos != p.tok.Pos {
		p.lex.Seek(startPos)
	} else {
		p.lex.SaveToken(p.tok)
	}
}

/* source_element_list
   : source_element (LT!* source_element)*
   ; */
func (p *parser) parseSourceElementList(isGlobal, tryReplaceLocalVarsWithRegs bool) {
	endTT := lexer.RBRACE
	if isGlobal {
		endTT = lexer.EOF
	}

	p.d.newScope()

	scopeCodeFlagsPos := p.d.dumpScopeCodeFlagsForRewrite()

	p.checkDirectivePrologueForUseStrict()

	regVarDeclPos := p.d.dumpRegVarDeclForRewrite()

	if p.insideEval && !p.insideFunction {
		p.d.dumpUndefinedAssignment(evalRetOperand())
	}

	p.skipNewlines()
	for !p.tokenIs(lexer.EOF) && !p.tokenIs(lexer.RBRACE) {
		p.parseSourceElement()
		p.skipNewlines()
	}

	if !p.tokenIs(endTT) {
		raiseSyntax(p.pos(), "Unexpected token")
	}
	p.lex.SaveToken(p.tok)

	scope := p.curScope()

	var scopeFlags bytecode.ScopeFlags
	if scope.strictMode {
		scopeFlags |= bytecode.ScopeFlagStrict
	}
	if !scope.refArguments {
		scopeFlags |= bytecode.ScopeFlagNotRefArguments
	}
	if !scope.refEval {
		scopeFlags |= bytecode.ScopeFlagNotRefEval
	}

	if p.optimize && tryReplaceLocalVarsWithRegs && scope.kind == ScopeFunction {
		scopeFlags = p.replaceLocalVarsWithRegs(scope, scopeFlags, &scopeCodeFlagsPos, &regVarDeclPos)
	}

	p.d.rewriteScopeCodeFlags(scopeCodeFlagsPos, scopeFlags)
	p.d.rewriteRegVarDecl(regVarDeclPos)
	p.d.finishScope()
}

// replaceLocalVarsWithRegs performs the local-variable promotion pass at
// function-scope close (see promote.go for the instruction rewriting).
func (p *parser) replaceLocalVarsWithRegs(scope *Scope, scopeFlags bytecode.ScopeFlags,
	scopeCodeFlagsPos, regVarDeclPos *int) bytecode.ScopeFlags {

	mayReplace := !scope.refEval && // eval can reference variables invisible to static analysis
		!scope.refArguments && // the arguments object aliases the lexical environment
		!scope.containsWith && // with changes identifier resolution
		!scope.containsTry && // so does catch
		!scope.containsDelete && // delete works on names, not values
		!scope.containsFunctions // nested functions can capture variables

	if !mayReplace {
		return scopeFlags
	}

	headerOm := scope.opMetaAt(0)
	if headerOm.op.Op != bytecode.OpFuncExprN && headerOm.op.Op != bytecode.OpFuncDeclN {
		return scopeFlags
	}

	// Find the function_end marker behind the varg list.
	instrPos := 1
	functionEndPos := instrPos
	for {
		om := scope.opMetaAt(functionEndPos)
		if om.op.Meta(bytecode.MetaFunctionEnd) {
			break
		}
		functionEndPos++
	}

	// Move variables to registers.
	p.d.startMoveOfVarsToRegs()
	variablePos := 0
	for variablePos < len(scope.variables) {
		v := scope.variables[variablePos]
		if v.isParam {
			variablePos++
			continue
		}
		if !p.d.tryReplaceIdentifierNameWithReg(scope, v.lit, false) {
			variablePos++
			continue
		}
		scope.variables = append(scope.variables[:variablePos], scope.variables[variablePos+1:]...)
		scope.localCount--
	}

	if !p.d.startMoveOfArgsToRegs(scope.paramCount) {
		return scopeFlags
	}

	scopeFlags |= bytecode.ScopeFlagArgumentsOnRegisters
	scopeFlags |= bytecode.ScopeFlagNoLexEnv

	// All arguments now live on registers; the header carries no names.
	if headerOm.op.Op == bytecode.OpFuncExprN {
		headerOm.op.Args[2] = 0
	} else {
		headerOm.op.Args[1] = 0
	}
	scope.setOpMeta(0, headerOm)

	// Mark duplicated argument names as empty, keeping only the last
	// declaration of each name.
	for arg1 := instrPos; arg1 < functionEndPos; arg1++ {
		om1 := scope.opMetaAt(arg1)
		for arg2 := arg1 + 1; arg2 < functionEndPos; arg2++ {
			om2 := scope.opMetaAt(arg2)
			if om1.litID[1] == om2.litID[1] {
				om1.op.Args[1] = bytecode.IdxEmpty
				om1.litID[1] = lit.None
				scope.setOpMeta(arg1, om1)
				break
			}
		}
	}

	// Replace each varg with its register and drop it from the buffer.
	for {
		om := scope.opMetaAt(instrPos)
		if om.op.Meta(bytecode.MetaFunctionEnd) {
			break
		}

		if om.op.Args[1] == bytecode.IdxEmpty {
			p.d.allocRegForUnusedArg()
		} else {
			p.d.tryReplaceIdentifierNameWithReg(scope, om.litID[1], true)
		}

		scope.removeOpMeta(instrPos)

		*regVarDeclPos--
		*scopeCodeFlagsPos--
		p.d.decrementFunctionEndPos()
		functionEndPos--
	}

	return scopeFlags
}

// parseProgram compiles a whole script or eval body into the root scope and
// returns it.
func (p *parser) parseProgram(src string, inEval, isStrict bool) *Scope {
	p.insideEval = inEval

	kind := ScopeGlobal
	if inEval {
		kind = ScopeEval
	}

	p.lex = lexer.New(src, p.lits)

	root := newScopeNode(p.scopePool.Get(), nil, kind)
	root.strictMode = isStrict
	p.scopes = append(p.scopes, root)
	p.d.setScope(root)
	p.lex.SetStrictMode(isStrict)

	p.skipNewlines()

	// Promotion is never attempted for global and eval code: redefinitions
	// through the global object or direct eval cannot be ruled out
	// statically.
	p.parseSourceElementList(true, false)

	p.skipNewlines()
	if !p.tokenIs(lexer.EOF) {
		raiseSyntax(p.pos(), "Unexpected token")
	}

	if p.insideEval {
		p.d.dumpRetval(evalRetOperand())
	} else {
		p.d.dumpRet()
	}

	return root
}
