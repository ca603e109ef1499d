// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrHistoryEntryNotFound("q-1")
	errors.Wrap(err, "failed to get history entry")
	s.ErrorIs(err, ErrHistoryEntryNotFound)
	s.Equal(Code(ErrHistoryEntryNotFound), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))
	s.Equal(errUnexpected.errCode, Code(errors.New("plain")))
	s.Equal(int32(0), Code(nil))

	sameCodeErr := newDeskError("new error", ErrHistoryEntryNotFound.errCode, false)
	s.True(sameCodeErr.Is(ErrHistoryEntryNotFound))
}

func (s *ErrSuite) TestWrap() {
	s.ErrorIs(WrapErrSerdeConfig("Connection", "Options", "object field requires a factory"), ErrSerdeConfig)
	s.ErrorIs(WrapErrSerdeValidation("value is not a string", "decode connection"), ErrSerdeValidation)
	s.ErrorIs(WrapErrTransportRequest("GET", "/api/connections", errors.New("connection refused")), ErrTransportRequest)
	s.ErrorIs(WrapErrTransportStatus("POST", "/api/connections", 400), ErrTransportStatus)
	s.ErrorIs(WrapErrTransportClosed("stream"), ErrTransportClosed)
	s.ErrorIs(WrapErrServiceIncompatible("1.2.0", ">=2.0.0"), ErrServiceIncompatible)
	s.ErrorIs(WrapErrHistoryStoreFailed("q-1", errors.New("disk full")), ErrHistoryStoreFailed)
	s.ErrorIs(WrapErrIoKeyNotFound("q-1"), ErrIoKeyNotFound)
	s.ErrorIs(WrapErrParameterInvalid("object", "string"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidRange(1, 65535, 70000), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("bad %s", "value"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("model"), ErrParameterMissing)
	s.ErrorIs(WrapErrOperationNotSupported("encode"), ErrOperationNotSupported)
	s.Nil(WrapErrIoFailed("q-1", nil))

	err := WrapErrSerdeConfig("Connection", "Options", "object field requires a factory")
	s.Contains(err.Error(), "[model=Connection]")
	s.Contains(err.Error(), "[property=Options]")
	s.Contains(err.Error(), ": object field requires a factory")
}

func (s *ErrSuite) TestRetryable() {
	s.True(IsRetryableErr(WrapErrTransportRequest("GET", "/", errors.New("eof"))))
	s.False(IsRetryableErr(WrapErrTransportStatus("GET", "/", 404)))
	s.False(IsRetryableErr(errors.New("plain")))
	s.True(IsCanceledOrTimeout(errors.Wrap(context.Canceled, "ctx")))
}

func (s *ErrSuite) TestErrorType() {
	s.Equal(InputError, GetErrorType(ErrSerdeValidation))
	s.Equal(SystemError, GetErrorType(ErrSerdeConfig))
	s.Equal(InputError, GetErrorType(errors.Wrap(WrapErrSerdeValidation("bad", "port"), "decode")))
	s.Equal(SystemError, GetErrorType(WrapErrIoFailed("q-1", errors.New("disk full"))))
	s.Equal(SystemError, GetErrorType(errors.New("plain")))
	s.Equal("input_error", InputError.String())
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
	s.Nil(Combine(nil, nil))
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	err = Combine(nil, err)
	s.NotNil(err)
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrIoFailed("k", errors.New("x")), WrapErrHistoryEntryNotFound(1))
	s.Equal(Code(ErrHistoryEntryNotFound), Code(err))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
