/*
Package dsl provides a fluent builder for constructing flow definitions
programmatically.

It lets developers define conversation flows in type-safe Go instead of
external JSON or YAML files, which is useful for dynamic flow generation,
unit testing, and IDE autocompletion.

Example usage:

	flow, err := dsl.New("1.0", "boas_vindas").
		Message("boas_vindas").Text("Olá! {{lead.nome}}").To("interesse").
		Choice("interesse").Question("O que você procura?").
		Option("Quero comprar", "comprar", "pontuacao").
		OptionEnd("Só olhando", "olhando").
		Action("pontuacao").Call("calcular_score", nil).To("fim").
		Message("fim").Text("Obrigado!").End().
		Build()

The resulting *domain.FlowDefinition passes the same checks the parser
applies to files.
*/
package dsl
